package dynamodb

import "studyflow-backend/application/ports"

// Compile-time interface checks
var (
	_ ports.NoteRepository      = (*NoteRepository)(nil)
	_ ports.FlashcardRepository = (*FlashcardRepository)(nil)
	_ ports.LinkRepository      = (*LinkRepository)(nil)
	_ ports.ActivityRepository  = (*ActivityRepository)(nil)
	_ ports.VersionRepository   = (*VersionRepository)(nil)
)
