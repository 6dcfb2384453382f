package model

// ClinicalInfo is the static clinical guidance attached to a
// DiagnosticClass.
type ClinicalInfo struct {
	Severity        string
	AffectedRegions []string
	Recommendations []string
}

// ClinicalCatalog maps each DiagnosticClass to its clinical guidance.
// Built once at startup and never mutated.
type ClinicalCatalog struct {
	entries map[DiagnosticClass]ClinicalInfo
}

// NewClinicalCatalog returns the catalog with the standard triage
// guidance for the three classes.
func NewClinicalCatalog() *ClinicalCatalog {
	return &ClinicalCatalog{
		entries: map[DiagnosticClass]ClinicalInfo{
			ClassNormal: {
				Severity:        "Low",
				AffectedRegions: []string{},
				Recommendations: []string{
					"No significant abnormalities detected",
					"Continue regular health checkups every 12 months",
					"Maintain healthy lifestyle habits",
				},
			},
			ClassPneumonia: {
				Severity:        "Medium",
				AffectedRegions: []string{"Right lower lobe", "Left lower lobe"},
				Recommendations: []string{
					"Consult a pulmonologist immediately",
					"Complete course of prescribed antibiotics",
					"Rest and stay well-hydrated",
					"Follow-up chest X-ray in 2-4 weeks",
				},
			},
			ClassLungOpacity: {
				Severity:        "Medium",
				AffectedRegions: []string{"Left upper lobe", "Perihilar region"},
				Recommendations: []string{
					"Further HRCT imaging is recommended",
					"Refer to pulmonologist for specialist evaluation",
					"Sputum culture to rule out bacterial/fungal infection",
					"Consider bronchoscopy if lesion persists",
				},
			},
		},
	}
}

// Lookup returns the clinical guidance for a class. Unknown classes
// fall back to the Normal entry so a response can always be built.
func (c *ClinicalCatalog) Lookup(class DiagnosticClass) ClinicalInfo {
	if info, ok := c.entries[class]; ok {
		return info
	}
	return c.entries[ClassNormal]
}
