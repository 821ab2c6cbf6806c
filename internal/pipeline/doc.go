// Package pipeline runs the listing save hooks in sequence.
//
// Each hook is a Step that receives the submission and may fill in fields
// before the listing is stored. The built-in AutofillStep resolves a
// taxonomy selection from the listing's free-text source fields.
//
// Steps run in the order they were added. With WithContinueOnError a failed
// step is recorded on the submission and the remaining steps still run, so a
// taxonomy that cannot be loaded never blocks a save.
package pipeline
