package scoring

import (
	"fmt"
	"math"
	"sort"

	"interview-scoring-service/internal/domain"
)

// DefaultProfileName is the profile that is always registered.
const DefaultProfileName = "default"

const weightTolerance = 1e-6

// WeightProfile is an immutable, named mapping from dimension to weight.
// Build one with NewWeightProfile; the zero value carries no weights.
type WeightProfile struct {
	name    string
	weights map[domain.Dimension]float64
}

// NewWeightProfile validates weights and returns a profile. Dimensions absent from
// weights get weight zero. Weights must be non-negative and sum to 1 within 1e-6.
func NewWeightProfile(name string, weights map[domain.Dimension]float64) (WeightProfile, error) {
	if name == "" {
		return WeightProfile{}, fmt.Errorf("%w: empty profile name", domain.ErrInvalidWeightProfile)
	}
	copied := make(map[domain.Dimension]float64, len(domain.Dimensions))
	sum := 0.0
	for dim, w := range weights {
		if !dim.Valid() {
			return WeightProfile{}, fmt.Errorf("%w: profile %q has unknown dimension %q", domain.ErrInvalidWeightProfile, name, dim)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return WeightProfile{}, fmt.Errorf("%w: profile %q has invalid weight %v for %s", domain.ErrInvalidWeightProfile, name, w, dim)
		}
		copied[dim] = w
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return WeightProfile{}, fmt.Errorf("%w: profile %q weights sum to %v", domain.ErrInvalidWeightProfile, name, sum)
	}
	return WeightProfile{name: name, weights: copied}, nil
}

// MustWeightProfile is NewWeightProfile for static tables; it panics on invalid input.
func MustWeightProfile(name string, weights map[domain.Dimension]float64) WeightProfile {
	p, err := NewWeightProfile(name, weights)
	if err != nil {
		panic(err)
	}
	return p
}

func (p WeightProfile) Name() string { return p.name }

// Weight returns the weight of d, zero when the dimension is not weighted.
func (p WeightProfile) Weight(d domain.Dimension) float64 {
	return p.weights[d]
}

// Weights returns a copy of the mapping.
func (p WeightProfile) Weights() map[domain.Dimension]float64 {
	out := make(map[domain.Dimension]float64, len(p.weights))
	for d, w := range p.weights {
		out[d] = w
	}
	return out
}

// BuiltinProfiles returns the profiles shipped with the service.
func BuiltinProfiles() []WeightProfile {
	return []WeightProfile{
		MustWeightProfile(DefaultProfileName, map[domain.Dimension]float64{
			domain.DimensionRelevance: 0.35,
			domain.DimensionGrammar:   0.20,
			domain.DimensionFluency:   0.25,
			domain.DimensionKeyword:   0.20,
		}),
		MustWeightProfile("technical", map[domain.Dimension]float64{
			domain.DimensionRelevance: 0.30,
			domain.DimensionGrammar:   0.15,
			domain.DimensionFluency:   0.20,
			domain.DimensionKeyword:   0.35,
		}),
		MustWeightProfile("behavioral", map[domain.Dimension]float64{
			domain.DimensionRelevance: 0.40,
			domain.DimensionGrammar:   0.15,
			domain.DimensionFluency:   0.35,
			domain.DimensionKeyword:   0.10,
		}),
		MustWeightProfile("communication", map[domain.Dimension]float64{
			domain.DimensionRelevance: 0.25,
			domain.DimensionGrammar:   0.30,
			domain.DimensionFluency:   0.35,
			domain.DimensionKeyword:   0.10,
		}),
	}
}

// ProfileRegistry resolves profiles by name or by session category.
// It is built once at startup and only read afterwards.
type ProfileRegistry struct {
	profiles   map[string]WeightProfile
	byCategory map[string]string
}

// NewProfileRegistry registers profiles (later entries replace earlier ones with the
// same name) and maps session categories to profile names. A default profile is required.
func NewProfileRegistry(profiles []WeightProfile, categories map[string]string) (*ProfileRegistry, error) {
	r := &ProfileRegistry{
		profiles:   make(map[string]WeightProfile, len(profiles)),
		byCategory: make(map[string]string, len(categories)),
	}
	for _, p := range profiles {
		if p.name == "" {
			return nil, fmt.Errorf("%w: unnamed profile", domain.ErrInvalidWeightProfile)
		}
		r.profiles[p.name] = p
	}
	if _, ok := r.profiles[DefaultProfileName]; !ok {
		return nil, fmt.Errorf("%w: %q profile missing", domain.ErrInvalidWeightProfile, DefaultProfileName)
	}
	for category, name := range categories {
		if _, ok := r.profiles[name]; !ok {
			return nil, fmt.Errorf("%w: category %q maps to %q", domain.ErrUnknownProfile, category, name)
		}
		r.byCategory[category] = name
	}
	return r, nil
}

// Get returns a profile by name.
func (r *ProfileRegistry) Get(name string) (WeightProfile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return WeightProfile{}, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, name)
	}
	return p, nil
}

// Default returns the default profile.
func (r *ProfileRegistry) Default() WeightProfile {
	return r.profiles[DefaultProfileName]
}

// ForCategory returns the profile mapped to a session category, falling back to default.
func (r *ProfileRegistry) ForCategory(category string) WeightProfile {
	if name, ok := r.byCategory[category]; ok {
		return r.profiles[name]
	}
	if p, ok := r.profiles[category]; ok {
		return p
	}
	return r.Default()
}

// Names returns the registered profile names, sorted.
func (r *ProfileRegistry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
