package bank

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

var (
	ErrUnknownSource    = errors.New("unknown bank source")
	ErrDuplicateProfile = errors.New("duplicate bank profile")
	ErrInvalidLayout    = errors.New("invalid column layout")
	ErrNoGenericProfile = errors.New("generic profile is required")
)

// Column roles usable in a layout.
const (
	RoleDate      = "date"
	RoleValueDate = "value_date"
	RoleLabel     = "label"
	RoleAmount    = "amount"
	RoleDebit     = "debit"
	RoleCredit    = "credit"
	RoleCategory  = "category"
	RoleIgnore    = "-"
)

var roles = map[string]bool{
	RoleDate: true, RoleValueDate: true, RoleLabel: true, RoleAmount: true,
	RoleDebit: true, RoleCredit: true, RoleCategory: true, RoleIgnore: true,
}

// Profile is the layout knowledge attached to one bank.
type Profile struct {
	Source         Source   `yaml:"id"`
	Name           string   `yaml:"name"`
	Tokens         []string `yaml:"tokens"`
	BankCodes      []string `yaml:"bank_codes"`
	Layout         []string `yaml:"layout"`
	TableLayout    []string `yaml:"table_layout"`
	Markers        []string `yaml:"markers"`
	CreditKeywords []string `yaml:"credit_keywords"`
	Merchants      []string `yaml:"merchants"`
}

func (p Profile) validate() error {
	if !p.Source.Valid() || p.Source == Unknown {
		return fmt.Errorf("%w: %q", ErrUnknownSource, p.Source)
	}
	for _, layout := range [][]string{p.Layout, p.TableLayout} {
		for _, role := range layout {
			if !roles[role] {
				return fmt.Errorf("%w: %s has role %q", ErrInvalidLayout, p.Source, role)
			}
		}
	}
	for _, code := range p.BankCodes {
		country, digits, ok := strings.Cut(code, ":")
		if !ok || len(country) != 2 || digits == "" {
			return fmt.Errorf("%w: %s has bank code %q", ErrInvalidLayout, p.Source, code)
		}
	}
	return nil
}

// Registry holds the ordered bank profiles and the matcher built from them.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	generic  Profile
	profiles []Profile
	bySource map[Source]int
	matcher  *Matcher
}

// LoadRegistry parses a YAML profile list. Every id must be a known Source,
// ids must be unique and a generic profile must be present.
func LoadRegistry(data []byte) (*Registry, error) {
	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse bank profiles: %w", err)
	}

	r := &Registry{bySource: make(map[Source]int)}
	hasGeneric := false
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if p.Source == Generic {
			if hasGeneric {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Source)
			}
			r.generic = p
			hasGeneric = true
			continue
		}
		if _, dup := r.bySource[p.Source]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Source)
		}
		r.bySource[p.Source] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
	if !hasGeneric {
		return nil, ErrNoGenericProfile
	}

	r.matcher = newMatcher(r.profiles)
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry built from the embedded profiles.
// It panics if the embedded file is invalid, which the package tests rule out.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := LoadRegistry(defaultProfiles)
		if err != nil {
			panic(fmt.Sprintf("bank: embedded profiles: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Profile returns the profile for s. Unknown and unlisted sources get the
// generic profile.
func (r *Registry) Profile(s Source) Profile {
	if i, ok := r.bySource[s]; ok {
		p := r.profiles[i]
		p.Markers = append(append([]string(nil), r.generic.Markers...), p.Markers...)
		p.CreditKeywords = append(append([]string(nil), r.generic.CreditKeywords...), p.CreditKeywords...)
		p.Merchants = append(append([]string(nil), r.generic.Merchants...), p.Merchants...)
		return p
	}
	g := r.generic
	if s == Unknown {
		g.Source = Unknown
	}
	return g
}

// Profiles returns the bank profiles in matching order, without generic.
func (r *Registry) Profiles() []Profile {
	return append([]Profile(nil), r.profiles...)
}

// Detect identifies the bank named in text or filename.
func (r *Registry) Detect(text, filename string) Match {
	return r.matcher.Match(text, filename)
}
