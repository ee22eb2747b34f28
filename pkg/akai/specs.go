package akai

// Field layouts for the S1000/S3000 family, in wire order. Numeric sizes
// are bytes before nibble expansion.

// ProgramSpec is the program header layout. GROUPS is the keygroup count
// and governs how much raw data follows the program chunk.
var ProgramSpec = []FieldSpec{
	{Name: "KGRP1", Kind: FieldNumber, Size: 2}, // block address of first keygroup
	{Name: "PRNAME", Kind: FieldString, Size: NameLength},
	{Name: "PRGNUM", Kind: FieldNumber, Size: 1}, // MIDI program number
	{Name: "PMCHAN", Kind: FieldNumber, Size: 1}, // MIDI channel, 255 = omni
	{Name: "POLYPH", Kind: FieldNumber, Size: 1},
	{Name: "PRIORT", Kind: FieldNumber, Size: 1},
	{Name: "PLAYLO", Kind: FieldNumber, Size: 1},
	{Name: "PLAYHI", Kind: FieldNumber, Size: 1},
	{Name: "OSHIFT", Kind: FieldNumber, Size: 1},
	{Name: "OUTPUT", Kind: FieldNumber, Size: 1},
	{Name: "STEREO", Kind: FieldNumber, Size: 1},
	{Name: "PANPOS", Kind: FieldNumber, Size: 1},
	{Name: "PRLOUD", Kind: FieldNumber, Size: 1},
	{Name: "V_LOUD", Kind: FieldNumber, Size: 1},
	{Name: "K_LOUD", Kind: FieldNumber, Size: 1},
	{Name: "P_LOUD", Kind: FieldNumber, Size: 1},
	{Name: "PANRAT", Kind: FieldNumber, Size: 1},
	{Name: "PANDEP", Kind: FieldNumber, Size: 1},
	{Name: "PANDEL", Kind: FieldNumber, Size: 1},
	{Name: "K_PANP", Kind: FieldNumber, Size: 1},
	{Name: "LFORAT", Kind: FieldNumber, Size: 1},
	{Name: "LFODEP", Kind: FieldNumber, Size: 1},
	{Name: "LFODEL", Kind: FieldNumber, Size: 1},
	{Name: "MWLDEP", Kind: FieldNumber, Size: 1},
	{Name: "PRSDEP", Kind: FieldNumber, Size: 1},
	{Name: "VELDEP", Kind: FieldNumber, Size: 1},
	{Name: "B_PTCH", Kind: FieldNumber, Size: 1},
	{Name: "P_PTCH", Kind: FieldNumber, Size: 1},
	{Name: "KXFADE", Kind: FieldNumber, Size: 1},
	{Name: "GROUPS", Kind: FieldNumber, Size: 1},
}

// KeygroupSpec is the keygroup header layout: key span, tuning, filter
// and envelope settings, then four velocity zones.
var KeygroupSpec = buildKeygroupSpec()

func buildKeygroupSpec() []FieldSpec {
	spec := []FieldSpec{
		{Name: "KGIDENT", Kind: FieldNumber, Size: 2},
		{Name: "LONOTE", Kind: FieldNumber, Size: 1},
		{Name: "HINOTE", Kind: FieldNumber, Size: 1},
		{Name: "KGTUNO", Kind: FieldNumber, Size: 2},
		{Name: "FILFRQ", Kind: FieldNumber, Size: 1},
		{Name: "K_FREQ", Kind: FieldNumber, Size: 1},
		{Name: "V_FREQ", Kind: FieldNumber, Size: 1},
		{Name: "P_FREQ", Kind: FieldNumber, Size: 1},
		{Name: "ATTAK1", Kind: FieldNumber, Size: 1},
		{Name: "DECAY1", Kind: FieldNumber, Size: 1},
		{Name: "SUSTN1", Kind: FieldNumber, Size: 1},
		{Name: "RELSE1", Kind: FieldNumber, Size: 1},
		{Name: "ATTAK2", Kind: FieldNumber, Size: 1},
		{Name: "DECAY2", Kind: FieldNumber, Size: 1},
		{Name: "SUSTN2", Kind: FieldNumber, Size: 1},
		{Name: "RELSE2", Kind: FieldNumber, Size: 1},
	}
	// Four velocity zones, numbered 1-4 in the field names.
	for z := 1; z <= 4; z++ {
		n := func(prefix string) string { return prefix + string(rune('0'+z)) }
		spec = append(spec,
			FieldSpec{Name: n("SNAME"), Kind: FieldString, Size: NameLength},
			FieldSpec{Name: n("LOVEL"), Kind: FieldNumber, Size: 1},
			FieldSpec{Name: n("HIVEL"), Kind: FieldNumber, Size: 1},
			FieldSpec{Name: n("VTUNO"), Kind: FieldNumber, Size: 2},
			FieldSpec{Name: n("VLOUD"), Kind: FieldNumber, Size: 1},
			FieldSpec{Name: n("VFREQ"), Kind: FieldNumber, Size: 1},
			FieldSpec{Name: n("VPANO"), Kind: FieldNumber, Size: 1},
			FieldSpec{Name: n("ZPLAY"), Kind: FieldNumber, Size: 1},
		)
	}
	return spec
}

// SampleSpec is the sample header layout.
var SampleSpec = []FieldSpec{
	{Name: "SHIDENT", Kind: FieldNumber, Size: 2},
	{Name: "SBANDW", Kind: FieldNumber, Size: 1},
	{Name: "SPITCH", Kind: FieldNumber, Size: 1},
	{Name: "SHNAME", Kind: FieldString, Size: NameLength},
	{Name: "SSRVLD", Kind: FieldNumber, Size: 1},
	{Name: "SLOOPS", Kind: FieldNumber, Size: 1},
	{Name: "SALOOP", Kind: FieldNumber, Size: 1},
	{Name: "SHLOOP", Kind: FieldNumber, Size: 1},
	{Name: "SHTYPE", Kind: FieldNumber, Size: 1},
	{Name: "STUNO", Kind: FieldNumber, Size: 2},
	{Name: "SLOCAT", Kind: FieldNumber, Size: 4},
	{Name: "SLNGTH", Kind: FieldNumber, Size: 4},
	{Name: "SSTART", Kind: FieldNumber, Size: 4},
	{Name: "SMPEND", Kind: FieldNumber, Size: 4},
	{Name: "SSRATE", Kind: FieldNumber, Size: 2},
}
