// Package ui asks the operator whether a computed backlog should be scrobbled.
//
// Two [tasks.Confirmer] implementations are provided:
//   - [PromptConfirmer] : a bubbletea program that renders the backlog and reads a one-line answer with bubbles/textinput
//   - [LineConfirmer] : a plain reader for pipes and dumb terminals
//
// Both treat the answer with [Affirmative]: only "y" or "yes" (any case, surrounding space ignored) confirms.
// Anything else, including an empty line or end of input, declines.
package ui
