package ca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValueEveryNativeType(t *testing.T) {
	cases := []struct {
		ct ChannelType
		v  Value
	}{
		{STRING, Value{Strings: []string{"hello", "world"}}},
		{INT, Value{Int16s: []int16{-3, 42}}},
		{FLOAT, Value{Float32s: []float32{1.5, -2.25}}},
		{ENUM, Value{Uint16s: []uint16{0, 3}}},
		{CHAR, Value{Bytes: []byte{1, 2}}},
		{LONG, Value{Int32s: []int32{-100000, 100000}}},
		{DOUBLE, Value{Float64s: []float64{3.14159, -2.71828}}},
	}
	for _, c := range cases {
		encoded, err := EncodeValue(c.ct, c.v, 2)
		require.NoError(t, err)
		decoded, err := DecodeValue(c.ct, encoded, 2)
		require.NoError(t, err)
		assert.Equal(t, c.v, decoded)
	}
}

func TestEncodeValueUnknownType(t *testing.T) {
	_, err := EncodeValue(ChannelType(9999), Value{}, 1)
	require.Error(t, err)
}

func TestDecodeValueShortDataStopsEarly(t *testing.T) {
	v, err := DecodeValue(INT, []byte{0, 5}, 3) // only one element worth of bytes
	require.NoError(t, err)
	assert.Equal(t, []int16{5, 0, 0}, v.Int16s)
}

func TestMetaSizeAgreesWithPayloadSize(t *testing.T) {
	size, err := PayloadSize(TIME_DOUBLE, 4)
	require.NoError(t, err)
	meta, err := MetaSize(TIME_DOUBLE)
	require.NoError(t, err)
	width, err := ElementWidth(TIME_DOUBLE)
	require.NoError(t, err)
	assert.Equal(t, meta+width*4, size)
}

func TestIsSpecialFlagsTheFourLayouts(t *testing.T) {
	for _, ct := range []ChannelType{PUT_ACKT, PUT_ACKS, STSACK_STRING, CLASS_NAME} {
		special, err := IsSpecial(ct)
		require.NoError(t, err)
		assert.True(t, special, ct.String())
	}
	special, err := IsSpecial(TIME_DOUBLE)
	require.NoError(t, err)
	assert.False(t, special)
}

func TestPayloadSizeRejectsNegativeCount(t *testing.T) {
	_, err := PayloadSize(DOUBLE, -1)
	require.Error(t, err)
}

func TestEncodeDecodeMetadataTimeVariant(t *testing.T) {
	m := Metadata{
		Status:            AlarmStatusHIGH,
		Severity:          MajorAlarm,
		SecondsSinceEpoch: 100,
		NanoSeconds:       200,
	}
	buf, err := EncodeMetadata(TIME_DOUBLE, m)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(TIME_DOUBLE, buf)
	require.NoError(t, err)
	assert.Equal(t, m.Status, decoded.Status)
	assert.Equal(t, m.Severity, decoded.Severity)
	assert.Equal(t, m.SecondsSinceEpoch, decoded.SecondsSinceEpoch)
	assert.Equal(t, m.NanoSeconds, decoded.NanoSeconds)
}

func TestEncodeDecodeMetadataGraphicNumeric(t *testing.T) {
	m := Metadata{
		Status:        AlarmStatusNone,
		Severity:      NoAlarm,
		Units:         "volts",
		Precision:     3,
		DisplayLimits: Limits{Upper: 10, Lower: -10},
		AlarmLimits:   Limits{Upper: 9, Lower: -9},
		WarningLimits: Limits{Upper: 8, Lower: -8},
	}
	buf, err := EncodeMetadata(GR_DOUBLE, m)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(GR_DOUBLE, buf)
	require.NoError(t, err)
	assert.Equal(t, "volts", decoded.Units)
	assert.Equal(t, int16(3), decoded.Precision)
	assert.Equal(t, m.DisplayLimits, decoded.DisplayLimits)
	assert.Equal(t, m.AlarmLimits, decoded.AlarmLimits)
	assert.Equal(t, m.WarningLimits, decoded.WarningLimits)
}

func TestEncodeDecodeMetadataControlAddsControlLimits(t *testing.T) {
	m := Metadata{ControlLimits: Limits{Upper: 100, Lower: -100}}
	buf, err := EncodeMetadata(CTRL_LONG, m)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(CTRL_LONG, buf)
	require.NoError(t, err)
	assert.Equal(t, m.ControlLimits, decoded.ControlLimits)
}

func TestEncodeDecodeMetadataEnumStateTable(t *testing.T) {
	m := Metadata{EnumStrings: []string{"OFF", "ON", "FAULT"}}
	buf, err := EncodeMetadata(CTRL_ENUM, m)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(CTRL_ENUM, buf)
	require.NoError(t, err)
	assert.Equal(t, m.EnumStrings, decoded.EnumStrings)
}

func TestEncodeDecodeMetadataSTSACKString(t *testing.T) {
	m := Metadata{Status: AlarmStatusCOS, Severity: MinorAlarm, ACKT: 1, ACKS: 1}
	buf, err := EncodeMetadata(STSACK_STRING, m)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(STSACK_STRING, buf)
	require.NoError(t, err)
	assert.Equal(t, m.Status, decoded.Status)
	assert.Equal(t, m.Severity, decoded.Severity)
	assert.Equal(t, m.ACKT, decoded.ACKT)
	assert.Equal(t, m.ACKS, decoded.ACKS)
}

func TestEncodeDecodeMetadataPlainStatusEveryNativeType(t *testing.T) {
	for i, ct := range []ChannelType{STS_STRING, STS_INT, STS_FLOAT, STS_ENUM, STS_CHAR, STS_LONG, STS_DOUBLE} {
		m := Metadata{Status: AlarmStatusHIGH, Severity: MajorAlarm}
		buf, err := EncodeMetadata(ct, m)
		require.NoError(t, err, ct.String())
		size, err := MetaSize(ct)
		require.NoError(t, err)
		assert.Len(t, buf, size, "%s: metadata must be exactly MetaSize bytes, index %d", ct, i)

		decoded, err := DecodeMetadata(ct, buf)
		require.NoError(t, err, ct.String())
		assert.Equal(t, m.Status, decoded.Status, ct.String())
		assert.Equal(t, m.Severity, decoded.Severity, ct.String())
	}
}

func TestDecodeMetadataShortBuffer(t *testing.T) {
	_, err := DecodeMetadata(TIME_DOUBLE, []byte{0, 0})
	require.Error(t, err)
	var rpe *RemoteProtocolError
	require.ErrorAs(t, err, &rpe)
}
