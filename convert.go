package si7021

// Transfer functions from the Si7021 datasheet, section 5.

func rawToCelsius(raw uint16) float32 {
	return 175.25*float32(raw)/65536.0 - 46.85
}

func rawToHumidity(raw uint16) float32 {
	return 125.0*float32(raw)/65536.0 - 6.0
}

func celsiusToFahrenheit(temp float32) float32 {
	return temp*1.8 + 32.0
}

// crc8 is the measurement checksum of the Si7021: polynomial
// x^8 + x^5 + x^4 + 1, initialization 0x00, computed over the raw response
// bytes before the humidity status bits are cleared.
func crc8(data ...byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
