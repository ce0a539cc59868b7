package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"mrfix/internal/gitlab"
)

// ConfirmFix asks before rebasing and force pushing the MR branch.
func ConfirmFix(mr *gitlab.MergeRequest, strategy string) (bool, error) {
	var proceed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Resolve conflicts in MR !%d?", mr.IID)).
				Description(fmt.Sprintf(
					"Keeps the %s version of conflicted files ('%s' strategy),\nthen force pushes %s and posts an update to the MR.",
					strategySide(strategy), strategy, mr.SourceBranch)).
				Affirmative("Fix it").
				Negative("Abort").
				Value(&proceed),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	return proceed, nil
}
