package constants

// SectionStatus represents the computed state of one onboarding section
type SectionStatus string

const (
	SectionStatusComplete   SectionStatus = "complete"
	SectionStatusIncomplete SectionStatus = "incomplete"
	SectionStatusBlocked    SectionStatus = "blocked"
)

// ProgressEventType classifies entries in the setup progress log
type ProgressEventType string

const (
	ProgressEventCreated            ProgressEventType = "created"
	ProgressEventUpdated            ProgressEventType = "updated"
	ProgressEventCompleted          ProgressEventType = "completed"
	ProgressEventManualRevalidation ProgressEventType = "manual_revalidation"
)

// Canonical section slugs for the ZEN studio onboarding flow
const (
	SectionIdentidad    = "identidad"
	SectionContacto     = "contacto"
	SectionRedes        = "redes-sociales"
	SectionPrecios      = "precios"
	SectionServicios    = "servicios"
	SectionCondiciones  = "condiciones-comerciales"
)

// Error entry recorded on a section when its field extraction failed
const ErrExtractionFailed = "extraction_failed"

type CachePrefix string

const (
	CachePrefixSetupStatus CachePrefix = "setup_status:"
	CachePrefixStudioSlug  CachePrefix = "studio_slug:"
)
