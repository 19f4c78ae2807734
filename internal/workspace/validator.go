package workspace

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// namePattern matches valid kebab-case names.
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

	// regionPattern matches AWS region codes like us-west-2 or us-gov-east-1.
	regionPattern = regexp.MustCompile(`^[a-z]{2}(-gov)?-[a-z]+-\d+$`)
)

// Validator validates workspace configurations.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration and reports every problem
// found, joined into one error.
func (v *Validator) Validate(config *Config) error {
	var errs []error

	if config.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version %q", config.Version))
	}

	if config.Name == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	} else if err := ValidateName(config.Name); err != nil {
		errs = append(errs, fmt.Errorf("invalid name: %w", err))
	}

	if err := v.validatePacker(&config.Packer); err != nil {
		errs = append(errs, fmt.Errorf("packer: %w", err))
	}

	if err := ValidateRegions(config.Regions); err != nil {
		errs = append(errs, fmt.Errorf("regions: %w", err))
	}

	if err := v.validateOutput(&config.Output); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}

	return errors.Join(errs...)
}

// validatePacker validates the packer invocation settings.
func (v *Validator) validatePacker(p *PackerConfig) error {
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("template is required")
	}
	for k := range p.Vars {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("vars contains an empty name")
		}
	}
	for i, f := range p.VarFiles {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("var_files[%d] must not be empty", i)
		}
	}
	return nil
}

// validateOutput validates the manifest settings.
func (v *Validator) validateOutput(o *OutputConfig) error {
	if strings.TrimSpace(o.Path) == "" {
		return fmt.Errorf("path is required")
	}
	switch o.Format {
	case FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be json or yaml)", o.Format)
	}
}

// ValidateName validates a name follows kebab-case convention.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be kebab-case (lowercase letters, numbers, and hyphens only, starting with a letter)")
	}
	return nil
}

// ValidateRegions checks region codes are well formed and unique.
func ValidateRegions(regions []string) error {
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if !regionPattern.MatchString(r) {
			return fmt.Errorf("invalid region %q", r)
		}
		if seen[r] {
			return fmt.Errorf("duplicate region %q", r)
		}
		seen[r] = true
	}
	return nil
}

// CheckRegions compares built AMIs against the configured regions. Every
// configured region must have an AMI; an empty list accepts anything.
func (c *Config) CheckRegions(amis map[string]string) error {
	var missing []string
	for _, r := range c.Regions {
		if _, ok := amis[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("no AMI built for region(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
