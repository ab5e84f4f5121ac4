package ca

import (
	"encoding/binary"
	"math"
)

// Limits is a (upper, lower) pair, used for display, alarm, warning, and
// control limits in graphic/control DBR metadata. The native width of each
// bound follows the channel's native element type.
type Limits struct {
	Upper float64
	Lower float64
}

// Metadata holds every field that can appear in a DBR metadata prefix. Only
// the fields relevant to a given ChannelType's variant are populated by
// DecodeMetadata / consulted by EncodeMetadata; the rest are zero values.
type Metadata struct {
	Status   AlarmStatus
	Severity AlarmSeverity

	SecondsSinceEpoch uint32
	NanoSeconds       uint32

	Units         string
	DisplayLimits Limits
	AlarmLimits   Limits
	WarningLimits Limits
	Precision     int16
	ControlLimits Limits
	EnumStrings   []string

	ACKT uint16
	ACKS uint16
}

// Value holds a decoded native array. Exactly one field is populated,
// selected by the ChannelType's native element kind. The codec produces
// this representation only when the caller asks for it via DecodeValue,
// never as a side effect of framing.
type Value struct {
	Strings  []string
	Int16s   []int16
	Float32s []float32
	Uint16s  []uint16 // ENUM
	Bytes    []byte   // CHAR
	Int32s   []int32
	Float64s []float64
}

// EncodeValue packs v as count native elements of ct's underlying type,
// returning the raw (unpadded) array bytes.
func EncodeValue(ct ChannelType, v Value, count int) ([]byte, error) {
	native, err := NativeType(ct)
	if err != nil {
		return nil, err
	}
	switch native {
	case STRING:
		return encodeStrings(v.Strings, count), nil
	case INT:
		return encodeInt16s(v.Int16s, count), nil
	case FLOAT:
		return encodeFloat32s(v.Float32s, count), nil
	case ENUM:
		return encodeUint16s(v.Uint16s, count), nil
	case CHAR:
		return encodeBytes(v.Bytes, count), nil
	case LONG:
		return encodeInt32s(v.Int32s, count), nil
	case DOUBLE:
		return encodeFloat64s(v.Float64s, count), nil
	default:
		return nil, NewCaprotoValueError(ct.String(), ErrUnknownDBRType)
	}
}

// DecodeValue unpacks count native elements of ct's underlying type from
// data, normally ElementWidth(ct)*count bytes. If data is shorter, the
// elements it does not cover are left at their zero value.
func DecodeValue(ct ChannelType, data []byte, count int) (Value, error) {
	native, err := NativeType(ct)
	if err != nil {
		return Value{}, err
	}
	switch native {
	case STRING:
		return Value{Strings: decodeStrings(data, count)}, nil
	case INT:
		return Value{Int16s: decodeInt16s(data, count)}, nil
	case FLOAT:
		return Value{Float32s: decodeFloat32s(data, count)}, nil
	case ENUM:
		return Value{Uint16s: decodeUint16s(data, count)}, nil
	case CHAR:
		return Value{Bytes: decodeBytes(data, count)}, nil
	case LONG:
		return Value{Int32s: decodeInt32s(data, count)}, nil
	case DOUBLE:
		return Value{Float64s: decodeFloat64s(data, count)}, nil
	default:
		return Value{}, NewCaprotoValueError(ct.String(), ErrUnknownDBRType)
	}
}

func encodeStrings(values []string, count int) []byte {
	out := make([]byte, MaxStringSize*count)
	for i := 0; i < count && i < len(values); i++ {
		copy(out[i*MaxStringSize:(i+1)*MaxStringSize], values[i])
	}
	return out
}

func decodeStrings(data []byte, count int) []string {
	out := make([]string, count)
	for i := 0; i < count; i++ {
		start := i * MaxStringSize
		end := start + MaxStringSize
		if end > len(data) {
			break
		}
		out[i] = trimNul(data[start:end])
	}
	return out
}

func trimNul(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

func encodeInt16s(values []int16, count int) []byte {
	out := make([]byte, 2*count)
	for i := 0; i < count && i < len(values); i++ {
		binary.BigEndian.PutUint16(out[i*2:], uint16(values[i]))
	}
	return out
}

func decodeInt16s(data []byte, count int) []int16 {
	out := make([]int16, count)
	for i := 0; i < count; i++ {
		if (i+1)*2 > len(data) {
			break
		}
		out[i] = int16(binary.BigEndian.Uint16(data[i*2:]))
	}
	return out
}

func encodeUint16s(values []uint16, count int) []byte {
	out := make([]byte, 2*count)
	for i := 0; i < count && i < len(values); i++ {
		binary.BigEndian.PutUint16(out[i*2:], values[i])
	}
	return out
}

func decodeUint16s(data []byte, count int) []uint16 {
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		if (i+1)*2 > len(data) {
			break
		}
		out[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return out
}

func encodeInt32s(values []int32, count int) []byte {
	out := make([]byte, 4*count)
	for i := 0; i < count && i < len(values); i++ {
		binary.BigEndian.PutUint32(out[i*4:], uint32(values[i]))
	}
	return out
}

func decodeInt32s(data []byte, count int) []int32 {
	out := make([]int32, count)
	for i := 0; i < count; i++ {
		if (i+1)*4 > len(data) {
			break
		}
		out[i] = int32(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out
}

func encodeFloat32s(values []float32, count int) []byte {
	out := make([]byte, 4*count)
	for i := 0; i < count && i < len(values); i++ {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(values[i]))
	}
	return out
}

func decodeFloat32s(data []byte, count int) []float32 {
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		if (i+1)*4 > len(data) {
			break
		}
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out
}

func encodeFloat64s(values []float64, count int) []byte {
	out := make([]byte, 8*count)
	for i := 0; i < count && i < len(values); i++ {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(values[i]))
	}
	return out
}

func decodeFloat64s(data []byte, count int) []float64 {
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		if (i+1)*8 > len(data) {
			break
		}
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out
}

func encodeBytes(values []byte, count int) []byte {
	out := make([]byte, count)
	copy(out, values)
	return out
}

func decodeBytes(data []byte, count int) []byte {
	out := make([]byte, count)
	copy(out, data)
	return out
}

// encodeNativeScalar packs f as one native element of ct's type, used for
// the limit fields of graphic/control metadata (which share the value
// array's native width).
func encodeNativeScalar(ct ChannelType, f float64) []byte {
	switch ct {
	case FLOAT:
		return encodeFloat32s([]float32{float32(f)}, 1)
	case DOUBLE:
		return encodeFloat64s([]float64{f}, 1)
	case LONG:
		return encodeInt32s([]int32{int32(f)}, 1)
	case CHAR:
		return []byte{byte(int8(f))}
	default: // INT/SHORT and anything else native-int16-width
		return encodeInt16s([]int16{int16(f)}, 1)
	}
}

func decodeNativeScalar(ct ChannelType, data []byte) float64 {
	switch ct {
	case FLOAT:
		return float64(decodeFloat32s(data, 1)[0])
	case DOUBLE:
		return decodeFloat64s(data, 1)[0]
	case LONG:
		return float64(decodeInt32s(data, 1)[0])
	case CHAR:
		if len(data) == 0 {
			return 0
		}
		return float64(int8(data[0]))
	default:
		return float64(decodeInt16s(data, 1)[0])
	}
}

// EncodeMetadata packs the metadata prefix for ct from m. The returned
// slice is exactly MetaSize(ct) bytes.
func EncodeMetadata(ct ChannelType, m Metadata) ([]byte, error) {
	size, err := MetaSize(ct)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	switch {
	case ct == CLASS_NAME:
		return buf, nil
	case ct == PUT_ACKT || ct == PUT_ACKS:
		return buf, nil
	case ct == STSACK_STRING:
		binary.BigEndian.PutUint16(buf[0:2], uint16(m.Status))
		binary.BigEndian.PutUint16(buf[2:4], uint16(m.Severity))
		binary.BigEndian.PutUint16(buf[4:6], m.ACKT)
		binary.BigEndian.PutUint16(buf[6:8], m.ACKS)
		return buf, nil
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(m.Status))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.Severity))
	if ct >= STS_STRING && ct <= STS_DOUBLE {
		return buf, nil // plain status, no further fields regardless of metaSize
	}
	if isTimeVariant(ct) {
		binary.BigEndian.PutUint32(buf[4:8], m.SecondsSinceEpoch)
		binary.BigEndian.PutUint32(buf[8:12], m.NanoSeconds)
		return buf, nil
	}
	// graphic or control metadata.
	native, _ := NativeType(ct)
	if native == ENUM {
		binary.BigEndian.PutUint16(buf[4:6], uint16(len(m.EnumStrings)))
		for i, s := range m.EnumStrings {
			if i >= MaxEnumStates {
				break
			}
			start := 6 + i*MaxEnumStringSize
			copy(buf[start:start+MaxEnumStringSize], s)
		}
		return buf, nil
	}
	off := 4
	if native == FLOAT || native == DOUBLE {
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(m.Precision))
		off += 4 // precision(2) + RISC pad(2)
	}
	width, _ := ElementWidth(native)
	limits := []float64{
		m.DisplayLimits.Upper, m.DisplayLimits.Lower,
		m.AlarmLimits.Upper, m.WarningLimits.Upper,
		m.WarningLimits.Lower, m.AlarmLimits.Lower,
	}
	isControl := isControlVariant(ct)
	if isControl {
		limits = append(limits, m.ControlLimits.Upper, m.ControlLimits.Lower)
	}
	copy(buf[off:off+MaxUnitsSize], m.Units)
	off += MaxUnitsSize
	for _, l := range limits {
		copy(buf[off:off+width], encodeNativeScalar(native, l))
		off += width
	}
	return buf, nil
}

// DecodeMetadata unpacks the metadata prefix for ct from the front of data,
// which must hold at least MetaSize(ct) bytes; any bytes after the prefix
// (such as the value array) are ignored.
func DecodeMetadata(ct ChannelType, data []byte) (Metadata, error) {
	size, err := MetaSize(ct)
	if err != nil {
		return Metadata{}, err
	}
	if len(data) < size {
		return Metadata{}, NewRemoteProtocolError("short DBR metadata", ErrShortBuffer)
	}
	var m Metadata
	if size == 0 {
		return m, nil
	}
	switch {
	case ct == CLASS_NAME, ct == PUT_ACKT, ct == PUT_ACKS:
		return m, nil
	case ct == STSACK_STRING:
		m.Status = AlarmStatus(binary.BigEndian.Uint16(data[0:2]))
		m.Severity = AlarmSeverity(binary.BigEndian.Uint16(data[2:4]))
		m.ACKT = binary.BigEndian.Uint16(data[4:6])
		m.ACKS = binary.BigEndian.Uint16(data[6:8])
		return m, nil
	}
	m.Status = AlarmStatus(binary.BigEndian.Uint16(data[0:2]))
	m.Severity = AlarmSeverity(binary.BigEndian.Uint16(data[2:4]))
	if ct >= STS_STRING && ct <= STS_DOUBLE {
		return m, nil
	}
	if isTimeVariant(ct) {
		m.SecondsSinceEpoch = binary.BigEndian.Uint32(data[4:8])
		m.NanoSeconds = binary.BigEndian.Uint32(data[8:12])
		return m, nil
	}
	native, _ := NativeType(ct)
	if native == ENUM {
		n := int(binary.BigEndian.Uint16(data[4:6]))
		strs := make([]string, 0, n)
		for i := 0; i < n && i < MaxEnumStates; i++ {
			start := 6 + i*MaxEnumStringSize
			strs = append(strs, trimNul(data[start:start+MaxEnumStringSize]))
		}
		m.EnumStrings = strs
		return m, nil
	}
	off := 4
	if native == FLOAT || native == DOUBLE {
		m.Precision = int16(binary.BigEndian.Uint16(data[off : off+2]))
		off += 4
	}
	width, _ := ElementWidth(native)
	m.Units = trimNul(data[off : off+MaxUnitsSize])
	off += MaxUnitsSize
	read := func() float64 {
		v := decodeNativeScalar(native, data[off:off+width])
		off += width
		return v
	}
	m.DisplayLimits.Upper = read()
	m.DisplayLimits.Lower = read()
	m.AlarmLimits.Upper = read()
	m.WarningLimits.Upper = read()
	m.WarningLimits.Lower = read()
	m.AlarmLimits.Lower = read()
	if isControlVariant(ct) {
		m.ControlLimits.Upper = read()
		m.ControlLimits.Lower = read()
	}
	return m, nil
}

func isTimeVariant(ct ChannelType) bool {
	return ct >= TIME_STRING && ct <= TIME_DOUBLE
}

func isControlVariant(ct ChannelType) bool {
	return ct >= CTRL_STRING && ct <= CTRL_DOUBLE
}
