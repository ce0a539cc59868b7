package report

import (
	"fmt"
	"strings"
	"time"
)

// Comment renders the markdown note posted back to the merge request,
// keyed by the recorded result.
func (r *Report) Comment() string {
	switch r.result {
	case ResultSuccess:
		return r.successComment()
	case ResultRebaseSuccess:
		return r.rebaseSuccessComment()
	default:
		return r.incompleteComment()
	}
}

func (r *Report) successComment() string {
	var b strings.Builder

	b.WriteString("## ✅ Merge Conflicts Resolved Automatically\n\n")
	fmt.Fprintf(&b, "**Environment:** %s Workspace\n", r.Environment)
	b.WriteString("**Action Taken:** Automatic rebase and conflict resolution\n\n")

	b.WriteString("**Changes Made:**\n")
	for _, action := range r.Actions {
		fmt.Fprintf(&b, "- %s\n", action)
	}

	if r.Workspace != "" {
		fmt.Fprintf(&b, "\n**Workspace:** `%s`\n", r.Workspace)
	}

	if len(r.TerraformFiles) > 0 {
		b.WriteString("\n**Terraform Files Detected & Handled:**\n")
		for _, file := range r.TerraformFiles {
			fmt.Fprintf(&b, "- `%s`\n", file)
		}
	}

	if len(r.NDOFiles) > 0 {
		b.WriteString("\n**NDO Schema Files Handled:**\n")
		for _, file := range r.NDOFiles {
			fmt.Fprintf(&b, "- `%s`\n", file)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n**⚠️ Warnings (Manual Review Recommended):**\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}

	fmt.Fprintf(&b, "\n**Strategy Used:** `%s`\n\n", r.Strategy)
	b.WriteString("✅ Conflicts resolved\n")
	fmt.Fprintf(&b, "✅ Rebased onto `%s`\n", r.MergeRequest.TargetBranch)
	b.WriteString("✅ Ready to merge\n\n")
	b.WriteString("**Next Steps:**\n")
	b.WriteString("1. Review the changes in this MR\n")
	b.WriteString("2. Run CI/CD pipeline tests\n")
	b.WriteString("3. Merge when ready\n\n")
	fmt.Fprintf(&b, "*Auto-fixed by mrfix - %s*\n", now())

	return b.String()
}

func (r *Report) rebaseSuccessComment() string {
	var b strings.Builder

	b.WriteString("## ✅ No Conflicts - Ready to Merge\n\n")
	fmt.Fprintf(&b, "Your merge request is up-to-date with `%s` and has no conflicts.\n\n",
		r.MergeRequest.TargetBranch)
	b.WriteString("**You can merge this MR safely!**\n\n")
	fmt.Fprintf(&b, "*Auto-validated by mrfix - %s*\n", now())

	return b.String()
}

func (r *Report) incompleteComment() string {
	var b strings.Builder

	b.WriteString("## ⚠️ Automatic Resolution Incomplete\n\n")
	fmt.Fprintf(&b, "**Status:** %s\n\n", r.result)

	b.WriteString("**Issues Found:**\n")
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n**Warnings:**\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}

	b.WriteString("\n**Manual Resolution Required:**\n")
	b.WriteString("```bash\n")
	b.WriteString("git fetch origin\n")
	fmt.Fprintf(&b, "git rebase origin/%s\n", r.MergeRequest.TargetBranch)
	b.WriteString("# Fix conflicts in your editor\n")
	b.WriteString("git add .\n")
	b.WriteString("git rebase --continue\n")
	fmt.Fprintf(&b, "git push origin %s --force\n", r.MergeRequest.SourceBranch)
	b.WriteString("```\n\n")

	b.WriteString("**Important for Terraform:**\n")
	b.WriteString("- Be careful with `.terraform` files\n")
	b.WriteString("- `.tfstate` files should not be in git\n")
	b.WriteString("- Use terraform workspace for state management\n\n")
	b.WriteString("*Please resolve manually and push to update this MR*\n")

	return b.String()
}

// Summary renders the end-of-run console block.
func (r *Report) Summary() string {
	line := strings.Repeat("=", 70)
	var b strings.Builder

	b.WriteString(line + "\n")
	b.WriteString("MERGE REQUEST AUTO-FIX RESULT\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "MR: #%d\n", r.MergeRequest.IID)
	fmt.Fprintf(&b, "Status: %s\n", r.result)
	fmt.Fprintf(&b, "Issues Found: %d\n", len(r.Issues))
	fmt.Fprintf(&b, "Actions Taken: %d\n", len(r.Actions))
	for _, action := range r.Actions {
		fmt.Fprintf(&b, "  ✓ %s\n", action)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "Warnings: %d\n", len(r.Warnings))
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "  ⚠ %s\n", warning)
		}
	}
	b.WriteString(line + "\n")

	return b.String()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
