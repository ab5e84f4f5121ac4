package ca

import (
	"fmt"
	"math"
	"time"
)

// Size constants for the DBR payload family. See companion document
// http://www.aps.anl.gov/epics/base/R3-16/0-docs/CAproto/index.html#payload-data-types
const (
	MaxStringSize     = 40 // fixed width of a DBR string element, NUL-padded
	MaxUnitsSize      = 8  // fixed width of the "units" field in graphic/control metadata
	MaxEnumStringSize = 26 // fixed width of one enum state label
	MaxEnumStates     = 16 // maximum number of enum state labels in GR_ENUM/CTRL_ENUM
)

// EpicsToUnixOffset is the offset in seconds between the EPICS epoch
// (1990-01-01T00:00:00 UTC) and the UNIX epoch.
const EpicsToUnixOffset = 631152000.0

// EpicsEpoch is the EPICS epoch expressed as a UTC time.Time.
var EpicsEpoch = time.Unix(int64(EpicsToUnixOffset), 0).UTC()

// ChannelType is the DBR type identifier: a native element type combined
// with a metadata variant (plain, status, time, graphic, control, or one of
// the four special single-purpose layouts).
type ChannelType uint16

// The native element types, <0..6>.
const (
	STRING ChannelType = iota
	INT
	FLOAT
	ENUM
	CHAR
	LONG
	DOUBLE
)

// SHORT is an alias for INT; EPICS uses the two names interchangeably.
const SHORT = INT

// Status-qualified variants, <7..13>: status (u16) + severity (u16) prefix.
const (
	STS_STRING ChannelType = iota + 7
	STS_INT
	STS_FLOAT
	STS_ENUM
	STS_CHAR
	STS_LONG
	STS_DOUBLE
)

// STS_SHORT is an alias for STS_INT.
const STS_SHORT = STS_INT

// Time-stamped variants, <14..20>: status + severity + CA timestamp prefix.
const (
	TIME_STRING ChannelType = iota + 14
	TIME_INT
	TIME_FLOAT
	TIME_ENUM
	TIME_CHAR
	TIME_LONG
	TIME_DOUBLE
)

// TIME_SHORT is an alias for TIME_INT.
const TIME_SHORT = TIME_INT

// Graphic variants, <21..27>: status + severity + display/alarm/warning
// limits (or enum-string table) prefix.
const (
	GR_STRING ChannelType = iota + 21 // not implemented by EPICS base; use STS_STRING
	GR_INT
	GR_FLOAT
	GR_ENUM
	GR_CHAR
	GR_LONG
	GR_DOUBLE
)

// GR_SHORT is an alias for GR_INT.
const GR_SHORT = GR_INT

// Control variants, <28..34>: graphic fields plus upper/lower control limits.
const (
	CTRL_STRING ChannelType = iota + 28 // not implemented by EPICS base; use STS_STRING
	CTRL_INT
	CTRL_FLOAT
	CTRL_ENUM
	CTRL_CHAR
	CTRL_LONG
	CTRL_DOUBLE
)

// CTRL_SHORT is an alias for CTRL_INT.
const CTRL_SHORT = CTRL_INT

// Special, single-purpose layouts, <35..38>.
const (
	PUT_ACKT      ChannelType = 35
	PUT_ACKS      ChannelType = 36
	STSACK_STRING ChannelType = 37
	CLASS_NAME    ChannelType = 38
)

var channelTypeNames = [...]string{
	"STRING", "INT", "FLOAT", "ENUM", "CHAR", "LONG", "DOUBLE",
	"STS_STRING", "STS_INT", "STS_FLOAT", "STS_ENUM", "STS_CHAR", "STS_LONG", "STS_DOUBLE",
	"TIME_STRING", "TIME_INT", "TIME_FLOAT", "TIME_ENUM", "TIME_CHAR", "TIME_LONG", "TIME_DOUBLE",
	"GR_STRING", "GR_INT", "GR_FLOAT", "GR_ENUM", "GR_CHAR", "GR_LONG", "GR_DOUBLE",
	"CTRL_STRING", "CTRL_INT", "CTRL_FLOAT", "CTRL_ENUM", "CTRL_CHAR", "CTRL_LONG", "CTRL_DOUBLE",
	"PUT_ACKT", "PUT_ACKS", "STSACK_STRING", "CLASS_NAME",
}

// String implements fmt.Stringer.
func (ct ChannelType) String() string {
	if int(ct) < len(channelTypeNames) {
		return channelTypeNames[ct]
	}
	return fmt.Sprintf("ChannelType<%d>", uint16(ct))
}

// AccessRights describes a channel's read/write permission, as reported by
// AccessRightsResponse.
type AccessRights int

const (
	NoAccess AccessRights = iota
	ReadAccess
	WriteAccess
	ReadWriteAccess
)

// AlarmSeverity is the DBR alarm severity field.
type AlarmSeverity int16

const (
	NoAlarm AlarmSeverity = iota
	MinorAlarm
	MajorAlarm
	InvalidAlarm
)

// AlarmStatus is the DBR alarm status field.
type AlarmStatus int16

const (
	AlarmStatusNone AlarmStatus = iota
	AlarmStatusRead
	AlarmStatusWrite
	AlarmStatusHIHI
	AlarmStatusHIGH
	AlarmStatusLOLO
	AlarmStatusLOW
	AlarmStatusState
	AlarmStatusCOS
	AlarmStatusComm
	AlarmStatusTimeout
	AlarmStatusHWLimit
	AlarmStatusCalc
	AlarmStatusScan
	AlarmStatusLink
	AlarmStatusSoft
	AlarmStatusBadSub
	AlarmStatusUDF
	AlarmStatusDisable
	AlarmStatusSimm
	AlarmStatusReadAccess
	AlarmStatusWriteAccess
)

// SubscriptionType is the event-select bitmask carried by EventAddRequest.
type SubscriptionType uint16

const (
	// DBEValue triggers an event on a significant change in value.
	DBEValue SubscriptionType = 1 << iota
	// DBELog triggers an event on an archiver-significant change in value.
	DBELog
	// DBEAlarm triggers an event when the alarm state changes.
	DBEAlarm
	// DBEProperty triggers an event when a property (limits, units, enum
	// strings, ...) changes.
	DBEProperty
)

// EpicsToUnix converts an EPICS TimeStamp (seconds since the EPICS epoch,
// nanoseconds within that second) to a UNIX timestamp in seconds, truncated
// to microsecond precision the way the reference implementation does.
//
// EpicsToUnix(0, 0) == 631152000.0.
func EpicsToUnix(secondsSinceEpoch, nanoSeconds uint32) float64 {
	microseconds := int64(nanoSeconds) / 1000
	return EpicsToUnixOffset + float64(secondsSinceEpoch) + float64(microseconds)*1e-6
}

// UnixToEpics converts a UNIX timestamp in seconds to an EPICS TimeStamp
// (seconds since the EPICS epoch, nanoseconds within that second).
//
// UnixToEpics(631152000.0) == (0, 0).
func UnixToEpics(unixSeconds float64) (secondsSinceEpoch, nanoSeconds uint32) {
	diff := unixSeconds - EpicsToUnixOffset
	secs := math.Floor(diff)
	nanos := (diff - secs) * 1e9
	return uint32(secs), uint32(math.Round(nanos))
}

// EpicsTimeToTime converts an EPICS TimeStamp directly to a time.Time.
func EpicsTimeToTime(secondsSinceEpoch, nanoSeconds uint32) time.Time {
	return EpicsEpoch.Add(time.Duration(secondsSinceEpoch)*time.Second + time.Duration(nanoSeconds))
}

// TimeToEpicsTime converts a time.Time to an EPICS TimeStamp.
func TimeToEpicsTime(t time.Time) (secondsSinceEpoch, nanoSeconds uint32) {
	d := t.Sub(EpicsEpoch)
	secs := int64(d.Seconds())
	nanos := d.Nanoseconds() - secs*int64(time.Second)
	return uint32(secs), uint32(nanos)
}

// blockAndOffset locates ct within its block of 7 and returns its offset from
// that block's STRING variant, which NativeType adds to STRING to get the
// plain native type, exactly as promote_type demotes in caproto's _dbr.py:
// each block of 7 is contiguous and begins at a STRING variant.
func blockAndOffset(ct ChannelType) (block, offset ChannelType, ok bool) {
	switch {
	case ct >= STRING && ct <= DOUBLE:
		return STRING, ct - STRING, true
	case ct >= STS_STRING && ct <= STS_DOUBLE:
		return STRING, ct - STS_STRING, true
	case ct >= TIME_STRING && ct <= TIME_DOUBLE:
		return STRING, ct - TIME_STRING, true
	case ct >= GR_STRING && ct <= GR_DOUBLE:
		return STRING, ct - GR_STRING, true
	case ct >= CTRL_STRING && ct <= CTRL_DOUBLE:
		return STRING, ct - CTRL_STRING, true
	default:
		return 0, 0, false
	}
}

// NativeType returns the native (plain) element type underlying ct.
// NativeType(PromoteType(t, v)) == t for every native t and variant v.
func NativeType(ct ChannelType) (ChannelType, error) {
	if ct == STSACK_STRING || ct == CLASS_NAME || ct == PUT_ACKT || ct == PUT_ACKS {
		return ct, nil
	}
	_, offset, ok := blockAndOffset(ct)
	if !ok {
		return 0, NewCaprotoValueError(fmt.Sprintf("no native type for %v", ct), ErrUnknownDBRType)
	}
	return STRING + offset, nil
}

// Variant selects which metadata family a native type is promoted to.
type Variant int

const (
	// Plain selects the bare native type: promotion is a no-op.
	Plain Variant = iota
	Status
	Time
	Graphic
	Control
)

// PromoteType promotes a native field type to its STS, TIME, GR, or CTRL
// variant. Promotion is monotone: promoting a type that is already in a
// different variant first demotes it to native.
func PromoteType(ct ChannelType, variant Variant) (ChannelType, error) {
	native, err := NativeType(ct)
	if err != nil {
		return 0, err
	}
	if native == STSACK_STRING || native == CLASS_NAME || native == PUT_ACKT || native == PUT_ACKS {
		return native, nil
	}
	offset := native - STRING
	switch variant {
	case Plain:
		return native, nil
	case Status:
		return STS_STRING + offset, nil
	case Time:
		return TIME_STRING + offset, nil
	case Graphic:
		return GR_STRING + offset, nil
	case Control:
		return CTRL_STRING + offset, nil
	default:
		return 0, NewCaprotoValueError("unknown DBR variant", nil)
	}
}
