package services

import "errors"

var (
	// ErrEmptyInput is returned when there is no text to generate cards from.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrEmptyInstruction is returned when a refine call has no instruction.
	ErrEmptyInstruction = errors.New("refine instruction is empty")

	// ErrStopGeneration can be returned by an emit callback to end a generation
	// early. The session is recorded as cancelled and no error is returned.
	ErrStopGeneration = errors.New("generation stopped by consumer")

	// ErrNoteStoreUnavailable is returned when the note store cannot be reached.
	ErrNoteStoreUnavailable = errors.New("could not connect to the note store; is Anki running with AnkiConnect installed?")

	// ErrEmptyDeckName is returned when a deck name is blank.
	ErrEmptyDeckName = errors.New("deck name is empty")
)
