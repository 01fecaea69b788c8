package zobject

import "github.com/goz-interpreter/goz/core"

// Property is one decoded property-list entry.
type Property struct {
	Number uint16
	Size   uint16 // length in bytes, 1..64
	Addr   uint32 // address of the property's data, after its size header
}

// propertyListStart skips the short-name header (a length byte plus
// that many words of encoded text) to find where the property list
// proper begins.
func (o *Object) propertyListStart() uint32 {
	nameLength, _ := o.c.ReadByte(o.PropertyPointer)
	return o.PropertyPointer + 1 + uint32(nameLength)*2
}

// readPropertyHeader decodes the size byte(s) at addr, returning the
// property number, its data length, the address of its data and the
// address immediately following the data (the next header, or the
// list terminator).
func readPropertyHeader(c *core.Core, addr uint32) (number uint16, size uint16, dataAddr uint32, nextAddr uint32) {
	sizeByte, _ := c.ReadByte(addr)

	if c.Version >= 4 {
		number = uint16(sizeByte & 0b0011_1111)
		if sizeByte&0x80 != 0 {
			sizeSecond, _ := c.ReadByte(addr + 1)
			size = uint16(sizeSecond & 0b0011_1111)
			if size == 0 {
				size = 64
			}
			dataAddr = addr + 2
		} else {
			if sizeByte&0b0100_0000 != 0 {
				size = 2
			} else {
				size = 1
			}
			dataAddr = addr + 1
		}
	} else {
		number = uint16(sizeByte & 0b0001_1111)
		size = uint16(sizeByte>>5) + 1
		dataAddr = addr + 1
	}

	nextAddr = dataAddr + uint32(size)
	return
}

// Properties walks the object's property list in descending-number
// order, the order the format stores them in.
func (o *Object) Properties() []Property {
	var props []Property
	addr := o.propertyListStart()
	for {
		sizeByte, ok := o.c.ReadByte(addr)
		if !ok || sizeByte == 0 {
			break
		}
		number, size, dataAddr, nextAddr := readPropertyHeader(o.c, addr)
		props = append(props, Property{Number: number, Size: size, Addr: dataAddr})
		addr = nextAddr
	}
	return props
}

// GetPropertyAddr returns the data address of property number, or 0 if
// the object's list has no such property (get_prop_addr contract).
func (o *Object) GetPropertyAddr(number uint16) uint32 {
	for _, p := range o.Properties() {
		if p.Number == number {
			return p.Addr
		}
	}
	return 0
}

// GetPropertyLen returns the byte length of the property whose data
// starts at propertyAddr, or 0 if propertyAddr is 0 (get_prop_len
// contract: querying address 0 is legal and answers 0).
func GetPropertyLen(c *core.Core, propertyAddr uint32) uint16 {
	if propertyAddr == 0 {
		return 0
	}
	if c.Version >= 4 {
		sizeByte, _ := c.ReadByte(propertyAddr - 1)
		if sizeByte&0x80 != 0 {
			size := uint16(sizeByte & 0b0011_1111)
			if size == 0 {
				return 64
			}
			return size
		}
		if sizeByte&0b0100_0000 != 0 {
			return 2
		}
		return 1
	}
	sizeByte, _ := c.ReadByte(propertyAddr - 1)
	return uint16(sizeByte>>5) + 1
}

// GetNextProperty returns the property number following `after` in the
// object's list (descending order), or the first property when after
// is 0. Returns 0 when `after` is the last property.
func (o *Object) GetNextProperty(after uint16) uint16 {
	props := o.Properties()
	if after == 0 {
		if len(props) == 0 {
			return 0
		}
		return props[0].Number
	}
	for i, p := range props {
		if p.Number == after {
			if i+1 < len(props) {
				return props[i+1].Number
			}
			return 0
		}
	}
	return 0
}

// GetProperty returns the value of property number, reading 1 or 2
// bytes per the Z-machine property-value convention, falling back to
// the property-defaults table when the object does not define it.
// ok is false when the object defines the property at a length other
// than 1 or 2 bytes - get_prop can only ever yield a single word, so a
// longer property is an error rather than a truncated read.
func (o *Object) GetProperty(number uint16) (value uint16, ok bool) {
	for _, p := range o.Properties() {
		if p.Number == number {
			if p.Size > 2 {
				return 0, false
			}
			if p.Size == 1 {
				v, _ := o.c.ReadByte(p.Addr)
				return uint16(v), true
			}
			v, _ := o.c.ReadHalfWord(p.Addr)
			return v, true
		}
	}
	return defaultProperty(o.c, number), true
}

// defaultProperty reads entry `number` (1-based) of the property
// defaults table that precedes the object table itself.
func defaultProperty(c *core.Core, number uint16) uint16 {
	if number == 0 {
		return 0
	}
	addr := uint32(c.ObjectTableBase) + uint32(number-1)*2
	v, _ := c.ReadHalfWord(addr)
	return v
}

// PutProperty overwrites property number's value. The caller (the
// put_prop opcode) is responsible for surfacing an error if the
// object does not define the property, or if it defines it at a
// length other than 1 or 2 bytes (put_prop requires an exact-length
// match; writing a word into a longer property would corrupt whatever
// follows it). found reports whether the object defines the property
// at all; sizeOK reports whether its length accepted the write.
func (o *Object) PutProperty(number uint16, value uint16) (found bool, sizeOK bool) {
	for _, p := range o.Properties() {
		if p.Number == number {
			if p.Size > 2 {
				return true, false
			}
			if p.Size == 1 {
				o.c.WriteByte(p.Addr, uint8(value))
			} else {
				o.c.WriteHalfWord(p.Addr, value)
			}
			return true, true
		}
	}
	return false, false
}
