package api

import (
	"fmt"
	"strings"
)

// CoreFeatures is a bit flag of WebAssembly core specification proposals a Runtime supports. Zero is not a valid
// flag on its own; individual features start at 1 so that an empty CoreFeatures(0) unambiguously means "none".
//
// See https://github.com/WebAssembly/proposals for the list this is modeled on.
type CoreFeatures uint64

const (
	// CoreFeatureMutableGlobal allows globals to be mutable. Finished in WebAssembly 1.0 (20191205).
	CoreFeatureMutableGlobal CoreFeatures = 1 << iota
	// CoreFeatureSignExtensionOps enables sign extension instructions ("sign-extension-ops").
	CoreFeatureSignExtensionOps
	// CoreFeatureMultiValue enables multiple return values and block types ("multi-value").
	CoreFeatureMultiValue
	// CoreFeatureNonTrappingFloatToIntConversion enables saturating float-to-int truncation.
	CoreFeatureNonTrappingFloatToIntConversion
	// CoreFeatureBulkMemoryOperations enables bulk memory and table instructions.
	CoreFeatureBulkMemoryOperations
	// CoreFeatureReferenceTypes enables externref, nullable references, and typed tables.
	CoreFeatureReferenceTypes
	// CoreFeatureSIMD enables the fixed-width SIMD proposal.
	CoreFeatureSIMD
	// CoreFeatureTailCall enables the return_call family of instructions.
	CoreFeatureTailCall
	// CoreFeatureExtendedConst enables extended constant expressions.
	CoreFeatureExtendedConst
)

// CoreFeaturesV1 are features included in WebAssembly 1.0 (20191205).
const CoreFeaturesV1 = CoreFeatureMutableGlobal

// CoreFeaturesV2 are features included in the WebAssembly Core 2.0 draft, on top of CoreFeaturesV1.
const CoreFeaturesV2 = CoreFeaturesV1 |
	CoreFeatureSignExtensionOps |
	CoreFeatureMultiValue |
	CoreFeatureNonTrappingFloatToIntConversion |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureReferenceTypes |
	CoreFeatureSIMD

// coreFeatureNames is ordered for String, not iota.
var coreFeatureNames = []struct {
	f    CoreFeatures
	name string
}{
	{CoreFeatureBulkMemoryOperations, "bulk-memory-operations"},
	{CoreFeatureExtendedConst, "extended-const"},
	{CoreFeatureMultiValue, "multi-value"},
	{CoreFeatureMutableGlobal, "mutable-global"},
	{CoreFeatureNonTrappingFloatToIntConversion, "nontrapping-float-to-int-conversion"},
	{CoreFeatureReferenceTypes, "reference-types"},
	{CoreFeatureSignExtensionOps, "sign-extension-ops"},
	{CoreFeatureSIMD, "simd"},
	{CoreFeatureTailCall, "tail-call"},
}

// IsEnabled returns true if the feature (or bundle of features) is set.
func (f CoreFeatures) IsEnabled(feature CoreFeatures) bool {
	return f&feature == feature && feature != 0
}

// SetEnabled returns a copy of f with the feature enabled or disabled. Setting bit zero is a no-op: it is not a
// valid flag on its own.
func (f CoreFeatures) SetEnabled(feature CoreFeatures, enabled bool) CoreFeatures {
	if enabled {
		return f | feature
	}
	return f &^ feature
}

// String renders the set bits in coreFeatureNames order, joined by '|'. Unrecognized bits are silently dropped.
func (f CoreFeatures) String() string {
	var names []string
	for _, e := range coreFeatureNames {
		if f.IsEnabled(e.f) {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}

// RequireEnabled returns an error if feature is not set in f.
func (f CoreFeatures) RequireEnabled(feature CoreFeatures) error {
	if !f.IsEnabled(feature) {
		for _, e := range coreFeatureNames {
			if e.f == feature {
				return fmt.Errorf("feature %q is disabled", e.name)
			}
		}
		return fmt.Errorf("feature (%#x) is disabled", uint64(feature))
	}
	return nil
}
