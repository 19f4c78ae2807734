package packer

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorTranslator converts packer ui errors to user-friendly messages.
type ErrorTranslator struct{}

// NewErrorTranslator creates a new error translator.
func NewErrorTranslator() *ErrorTranslator {
	return &ErrorTranslator{}
}

var (
	builderErroredRE = regexp.MustCompile(`Build '([^']+)' errored`)
	amiNameRE        = regexp.MustCompile(`AMI Name: '([^']+)' is used by an existing AMI: (ami-[0-9a-f]+)`)
	regionRE         = regexp.MustCompile(`[a-z]{2}(?:-gov)?-[a-z]+-\d`)
)

// Translate converts the ui error messages of a failed build into one
// message. The most specific known failure wins; otherwise the last error
// is cleaned up and returned.
func (t *ErrorTranslator) Translate(messages []string) string {
	if len(messages) == 0 {
		return "Packer failed without reporting an error. Re-run with --verbose for details."
	}
	all := strings.Join(messages, "\n")

	switch {
	case strings.Contains(all, "No builds to run") || strings.Contains(all, "no builds to run"):
		return "The template defines no builders matching this build. Check the template and --only."
	case strings.Contains(all, "AuthFailure") || strings.Contains(all, "NoCredentialProviders") ||
		strings.Contains(all, "InvalidClientTokenId"):
		return "AWS rejected the credentials. Check AWS_PROFILE or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY."
	case strings.Contains(all, "UnauthorizedOperation"):
		return t.withBuilder(all, "The AWS credentials are not allowed to perform this operation")
	case amiNameRE.MatchString(all):
		m := amiNameRE.FindStringSubmatch(all)
		return fmt.Sprintf("An AMI named '%s' already exists (%s). Bump the image name or deregister it.", m[1], m[2])
	case strings.Contains(all, "InvalidAMIID"):
		return t.withRegion(all, "The source AMI does not exist")
	case strings.Contains(all, "Failed to parse template") || strings.Contains(all, "Error parsing JSON"):
		return fmt.Sprintf("Template is not valid:\n%s", t.extractErrorDetail(messages))
	case strings.Contains(all, "Timeout waiting for SSH"):
		return t.withBuilder(all, "Timed out waiting for SSH on the build instance")
	}

	return t.cleanError(messages[len(messages)-1])
}

// withBuilder appends the failing builder name when packer reported one.
func (t *ErrorTranslator) withBuilder(all, msg string) string {
	if m := builderErroredRE.FindStringSubmatch(all); len(m) > 1 {
		return fmt.Sprintf("%s (builder '%s').", msg, m[1])
	}
	return msg + "."
}

// withRegion appends the first AWS region named in the errors.
func (t *ErrorTranslator) withRegion(all, msg string) string {
	if region := regionRE.FindString(all); region != "" {
		return fmt.Sprintf("%s in region %s.", msg, region)
	}
	return msg + "."
}

// extractErrorDetail extracts the most relevant error lines.
func (t *ErrorTranslator) extractErrorDetail(messages []string) string {
	var relevant []string
	for _, msg := range messages {
		for _, line := range strings.Split(msg, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				relevant = append(relevant, line)
			}
		}
	}
	if len(relevant) > 5 {
		relevant = relevant[:5]
		relevant = append(relevant, "... (run with --verbose for full output)")
	}
	return strings.Join(relevant, "\n")
}

// cleanError strips packer's progress prefixes.
func (t *ErrorTranslator) cleanError(msg string) string {
	cleaned := strings.TrimSpace(msg)
	cleaned = strings.TrimPrefix(cleaned, "==> ")
	cleaned = regexp.MustCompile(`^Build '[^']+' errored( after [^:]+)?: `).ReplaceAllString(cleaned, "")
	return cleaned
}
