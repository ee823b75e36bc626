// Package domain holds the pure room rules for the treasure hunt game:
// phase transitions, turn order, dig validation, and the commitment scheme.
// Nothing in this package performs I/O; the service layer owns persistence
// and settlement.
package domain
