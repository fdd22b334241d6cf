package protocol

import "fmt"

// Ack is the classification of a single status byte.
type Ack int

const (
	// AckUnrecognized is any byte that is not a known status code
	AckUnrecognized Ack = iota

	// AckOK is the positive acknowledgement (0x79)
	AckOK

	// AckNack is the negative acknowledgement (0x1F)
	AckNack

	// AckAbort is the abort status (0x5F)
	AckAbort
)

func (a Ack) String() string {
	switch a {
	case AckOK:
		return "ACK"
	case AckNack:
		return "NACK"
	case AckAbort:
		return "ABORT"
	default:
		return "unrecognized"
	}
}

// Valid reports whether c is one of the supported command codes.
func (c Command) Valid() bool {
	switch c {
	case CmdGet, CmdGetVersion, CmdGetID, CmdGetPhase,
		CmdReadMemory, CmdReadPartition, CmdStart, CmdDownload:
		return true
	}
	return false
}

func (c Command) String() string {
	switch c {
	case CmdGet:
		return "Get"
	case CmdGetVersion:
		return "Get Version"
	case CmdGetID:
		return "Get ID"
	case CmdGetPhase:
		return "Get Phase"
	case CmdReadMemory:
		return "Read Memory"
	case CmdReadPartition:
		return "Read Partition"
	case CmdStart:
		return "Start"
	case CmdDownload:
		return "Download"
	default:
		return fmt.Sprintf("Command(0x%02X)", byte(c))
	}
}
