package isdbtpsi

import (
	"strconv"
	"time"
)

// parseMJDTime parses the 5-byte MJD+BCD start_time field used by
// SDTT's schedule_description (spec.md §6 SDTT payload): 16 bits of
// Modified Julian Date followed by a 24-bit BCD hour/minute/second,
// the same encoding ARIB inherited from DVB SI Annex C. All bits set
// means "undefined start time"; callers check that themselves since
// the zero time.Time already signals it unambiguously.
func parseMJDTime(bs []byte) time.Time {
	mjd := uint16(bs[0])<<8 | uint16(bs[1])
	if mjd == 0xffff {
		return time.Time{}
	}

	yt := int((float64(mjd) - 15078.2) / 365.25)
	mt := int((float64(mjd) - 14956.1 - float64(int(float64(yt)*365.25))) / 30.6001)
	d := int(mjd) - 14956 - int(float64(yt)*365.25) - int(float64(mt)*30.6001)
	k := 0
	if mt == 14 || mt == 15 {
		k = 1
	}
	y := yt + k + 1900
	m := mt - 1 - k*12

	dateStr := strconv.Itoa(y) + "-" + strconv.Itoa(m) + "-" + strconv.Itoa(d)
	t, _ := time.Parse("2006-1-2", dateStr)
	return t.Add(parseBCDDurationSeconds(bs[2:5]))
}

// parseBCDDurationMinutes parses a 2-byte hour/minute BCD duration.
func parseBCDDurationMinutes(bs []byte) time.Duration {
	return parseBCDByte(bs[0])*time.Hour + parseBCDByte(bs[1])*time.Minute
}

// parseBCDDurationSeconds parses a 3-byte hour/minute/second BCD duration.
func parseBCDDurationSeconds(bs []byte) time.Duration {
	return parseBCDByte(bs[0])*time.Hour + parseBCDByte(bs[1])*time.Minute + parseBCDByte(bs[2])*time.Second
}

// parseBCDByte decodes one 4-bit/4-bit BCD byte into its integer value.
func parseBCDByte(b byte) time.Duration {
	return time.Duration(b>>4*10 + b&0xf)
}

// putMJDTime encodes t into the 5-byte MJD+BCD start_time field,
// mirroring parseMJDTime for the SDTT generator.
func putMJDTime(bs []byte, t time.Time) {
	year := t.Year() - 1900
	month := t.Month()
	day := t.Day()

	l := 0
	if month <= time.February {
		l = 1
	}
	mjd := 14956 + day + int(float64(year-l)*365.25) + int(float64(int(month)+1+l*12)*30.6001)

	bs[0] = byte(mjd >> 8)
	bs[1] = byte(mjd)
	putBCDDurationSeconds(bs[2:5], t.Sub(t.Truncate(24*time.Hour)))
}

// putBCDDurationMinutes encodes d as a 2-byte hour/minute BCD duration.
func putBCDDurationMinutes(bs []byte, d time.Duration) {
	bs[0] = bcdByteRepresentation(uint8(d.Hours()))
	bs[1] = bcdByteRepresentation(uint8(int(d.Minutes()) % 60))
}

// putBCDDurationSeconds encodes d as a 3-byte hour/minute/second BCD duration.
func putBCDDurationSeconds(bs []byte, d time.Duration) {
	bs[0] = bcdByteRepresentation(uint8(d.Hours()))
	bs[1] = bcdByteRepresentation(uint8(int(d.Minutes()) % 60))
	bs[2] = bcdByteRepresentation(uint8(int(d.Seconds()) % 60))
}

// bcdByteRepresentation encodes n (0-99) as one 4-bit/4-bit BCD byte.
func bcdByteRepresentation(n uint8) uint8 {
	return (n/10)<<4 | n%10
}
