package ca

// dbrRow is one row of the DBR metadata table: for every ChannelType it
// records the width of one native array element and the size of the fixed
// metadata prefix that precedes the value array on the wire. Encoders and
// decoders consult this table instead of a class hierarchy.
type dbrRow struct {
	elementWidth int // bytes per native array element
	metaSize     int // bytes of status/time/graphic/control prefix before the value array
	special      bool
}

// elementWidths gives the native array element width for each of the seven
// native element kinds, by STRING..DOUBLE offset.
var elementWidths = [7]int{
	MaxStringSize, // STRING
	2,             // INT/SHORT
	4,             // FLOAT
	2,             // ENUM
	1,             // CHAR
	4,             // LONG
	8,             // DOUBLE
}

// metaSizeTable is indexed by ChannelType (0..38).
var metaSizeTable = buildMetaSizeTable()

func buildMetaSizeTable() [39]dbrRow {
	var t [39]dbrRow
	for i := 0; i < 7; i++ {
		t[STRING+ChannelType(i)] = dbrRow{elementWidth: elementWidths[i]}
	}
	// status: status(2) + severity(2) = 4, plus RISC padding for CHAR/DOUBLE.
	for i := 0; i < 7; i++ {
		meta := 4
		switch STRING + ChannelType(i) {
		case CHAR:
			meta = 5
		case DOUBLE:
			meta = 8
		}
		t[STS_STRING+ChannelType(i)] = dbrRow{elementWidth: elementWidths[i], metaSize: meta}
	}
	// time: status(2) + severity(2) + seconds(4) + nanoseconds(4) = 12, plus
	// RISC padding to keep the value array aligned as epics-base does.
	for i := 0; i < 7; i++ {
		meta := 12
		switch STRING + ChannelType(i) {
		case INT, ENUM:
			meta = 14
		case CHAR:
			meta = 15
		case DOUBLE:
			meta = 16
		}
		t[TIME_STRING+ChannelType(i)] = dbrRow{elementWidth: elementWidths[i], metaSize: meta}
	}
	// graphic: status+severity(4) [+ precision+pad(4) for float/double] +
	// units(8) + 6 limit fields of the native width. ENUM instead carries a
	// state count (2) plus a fixed enum-string table.
	for i := 0; i < 7; i++ {
		ct := STRING + ChannelType(i)
		var meta int
		switch ct {
		case ENUM:
			meta = 4 + 2 + MaxEnumStates*MaxEnumStringSize
		case FLOAT, DOUBLE:
			meta = 4 + 4 + MaxUnitsSize + 6*elementWidths[i]
		case CHAR:
			meta = 4 + MaxUnitsSize + 6*elementWidths[i] + 1 // RISC pad
		default:
			meta = 4 + MaxUnitsSize + 6*elementWidths[i]
		}
		t[GR_STRING+ChannelType(i)] = dbrRow{elementWidth: elementWidths[i], metaSize: meta}
	}
	// control: graphic fields plus two more (upper/lower control) limits of
	// the native width; ENUM is identical to its graphic counterpart.
	for i := 0; i < 7; i++ {
		ct := STRING + ChannelType(i)
		var meta int
		switch ct {
		case ENUM:
			meta = 4 + 2 + MaxEnumStates*MaxEnumStringSize
		case FLOAT, DOUBLE:
			meta = 4 + 4 + MaxUnitsSize + 8*elementWidths[i]
		case CHAR:
			meta = 4 + MaxUnitsSize + 8*elementWidths[i] + 1 // RISC pad
		default:
			meta = 4 + MaxUnitsSize + 8*elementWidths[i]
		}
		t[CTRL_STRING+ChannelType(i)] = dbrRow{elementWidth: elementWidths[i], metaSize: meta}
	}
	t[PUT_ACKT] = dbrRow{elementWidth: 2, metaSize: 0, special: true}
	t[PUT_ACKS] = dbrRow{elementWidth: 2, metaSize: 0, special: true}
	t[STSACK_STRING] = dbrRow{elementWidth: 1, metaSize: 4 + 2 + 2, special: true} // status+severity+ackt+acks, then the string itself
	t[CLASS_NAME] = dbrRow{elementWidth: 1, metaSize: 0, special: true}
	return t
}

func lookupRow(ct ChannelType) (dbrRow, error) {
	if int(ct) >= len(metaSizeTable) {
		return dbrRow{}, NewCaprotoValueError(ct.String(), ErrUnknownDBRType)
	}
	native, err := NativeType(ct)
	if err != nil {
		return dbrRow{}, err
	}
	_ = native
	return metaSizeTable[ct], nil
}

// MetaSize returns the size in bytes of the fixed metadata prefix that
// precedes the native value array for ct (0 for plain/native types).
func MetaSize(ct ChannelType) (int, error) {
	row, err := lookupRow(ct)
	if err != nil {
		return 0, err
	}
	return row.metaSize, nil
}

// ElementWidth returns the width in bytes of one element of ct's native
// value array.
func ElementWidth(ct ChannelType) (int, error) {
	row, err := lookupRow(ct)
	if err != nil {
		return 0, err
	}
	return row.elementWidth, nil
}

// IsSpecial reports whether ct is one of the four special, single-purpose
// layouts (PUT_ACKT, PUT_ACKS, STSACK_STRING, CLASS_NAME) whose payload is
// not "metadata prefix + native array" but a fixed ad hoc structure.
func IsSpecial(ct ChannelType) (bool, error) {
	row, err := lookupRow(ct)
	if err != nil {
		return false, err
	}
	return row.special, nil
}

// PayloadSize returns the total wire size, before 8-byte padding, of a DBR
// value of type ct holding count native elements.
func PayloadSize(ct ChannelType, count int) (int, error) {
	if count < 0 {
		return 0, NewCaprotoValueError("data count", ErrNegativeCount)
	}
	row, err := lookupRow(ct)
	if err != nil {
		return 0, err
	}
	switch ct {
	case STSACK_STRING:
		return row.metaSize + MaxStringSize, nil
	case CLASS_NAME:
		return MaxStringSize, nil
	case PUT_ACKT, PUT_ACKS:
		return row.elementWidth, nil
	}
	return row.metaSize + row.elementWidth*count, nil
}
