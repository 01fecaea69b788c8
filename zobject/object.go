// Package zobject navigates the object table: the parent/sibling/child
// tree, attribute bits and the per-object property list.
package zobject

import (
	"github.com/goz-interpreter/goz/core"
	"github.com/goz-interpreter/goz/zstring"
)

// entrySize and defaultTableSize differ between v1-3 (9-byte entries,
// 31-word default property table) and v4+ (14-byte entries, 63-word).
func entrySize(version uint8) uint32 {
	if version >= 4 {
		return 14
	}
	return 9
}

func defaultTableWords(version uint8) uint32 {
	if version >= 4 {
		return 63
	}
	return 31
}

// Object is a snapshot of one object-table entry.
type Object struct {
	c               *core.Core
	Id              uint16
	BaseAddress     uint32
	PropertyPointer uint32
}

// Address returns the byte address of object id's entry.
func Address(c *core.Core, id uint16) uint32 {
	return uint32(c.ObjectTableBase) + defaultTableWords(c.Version)*2 + uint32(id-1)*entrySize(c.Version)
}

// Get loads object id's entry. id 0 is the Z-machine's "no object"
// sentinel and is invalid to fetch.
func Get(c *core.Core, id uint16) *Object {
	base := Address(c, id)
	var propPtr uint16
	if c.Version >= 4 {
		propPtr, _ = c.ReadHalfWord(base + 12)
	} else {
		b, _ := c.ReadByte(base + 7)
		b2, _ := c.ReadByte(base + 8)
		propPtr = uint16(b)<<8 | uint16(b2)
	}
	return &Object{c: c, Id: id, BaseAddress: base, PropertyPointer: uint32(propPtr)}
}

// Name decodes the object's short name from its property table header.
func (o *Object) Name(alphabets *zstring.Alphabets, unicode zstring.UnicodeTable) string {
	if o.PropertyPointer == 0 {
		return ""
	}
	nameLength, _ := o.c.ReadByte(o.PropertyPointer)
	if nameLength == 0 {
		return ""
	}
	name, _ := zstring.Decode(o.c, alphabets, unicode, o.PropertyPointer+1, true)
	return name
}

func (o *Object) parentOffset() uint32 {
	if o.c.Version >= 4 {
		return 6
	}
	return 4
}
func (o *Object) siblingOffset() uint32 {
	if o.c.Version >= 4 {
		return 8
	}
	return 5
}
func (o *Object) childOffset() uint32 {
	if o.c.Version >= 4 {
		return 10
	}
	return 6
}

func (o *Object) readField(offset uint32) uint16 {
	if o.c.Version >= 4 {
		v, _ := o.c.ReadHalfWord(o.BaseAddress + offset)
		return v
	}
	v, _ := o.c.ReadByte(o.BaseAddress + offset)
	return uint16(v)
}

func (o *Object) writeField(offset uint32, value uint16) {
	if o.c.Version >= 4 {
		o.c.WriteHalfWord(o.BaseAddress+offset, value)
	} else {
		o.c.WriteByte(o.BaseAddress+offset, uint8(value))
	}
}

func (o *Object) Parent() uint16  { return o.readField(o.parentOffset()) }
func (o *Object) Sibling() uint16 { return o.readField(o.siblingOffset()) }
func (o *Object) Child() uint16   { return o.readField(o.childOffset()) }

func (o *Object) SetParent(id uint16)  { o.writeField(o.parentOffset(), id) }
func (o *Object) SetSibling(id uint16) { o.writeField(o.siblingOffset(), id) }
func (o *Object) SetChild(id uint16)   { o.writeField(o.childOffset(), id) }

func maxAttribute(version uint8) uint16 {
	if version >= 4 {
		return 47
	}
	return 31
}

// TestAttribute reports whether attribute is set. Attributes are
// numbered MSB-first starting at bit 7 of the first attribute byte.
func (o *Object) TestAttribute(attribute uint16) bool {
	if attribute > maxAttribute(o.c.Version) {
		return false
	}
	b, _ := o.c.ReadByte(o.BaseAddress + uint32(attribute/8))
	mask := uint8(1) << (7 - attribute%8)
	return b&mask != 0
}

// SetAttribute sets attribute's bit. An out-of-range attribute number
// is logged by the caller and is a no-op here.
func (o *Object) SetAttribute(attribute uint16) bool {
	if attribute > maxAttribute(o.c.Version) {
		return false
	}
	addr := o.BaseAddress + uint32(attribute/8)
	b, _ := o.c.ReadByte(addr)
	o.c.WriteByte(addr, b|(1<<(7-attribute%8)))
	return true
}

// ClearAttribute clears attribute's bit.
func (o *Object) ClearAttribute(attribute uint16) bool {
	if attribute > maxAttribute(o.c.Version) {
		return false
	}
	addr := o.BaseAddress + uint32(attribute/8)
	b, _ := o.c.ReadByte(addr)
	o.c.WriteByte(addr, b&^(1<<(7-attribute%8)))
	return true
}

// Remove detaches id from its parent's child/sibling chain and clears
// its own parent and sibling fields. A no-op if id has no parent.
func Remove(c *core.Core, id uint16) {
	obj := Get(c, id)
	parentId := obj.Parent()
	if parentId == 0 {
		return
	}

	parent := Get(c, parentId)
	if parent.Child() == id {
		parent.SetChild(obj.Sibling())
	} else {
		siblingId := parent.Child()
		for siblingId != 0 {
			sibling := Get(c, siblingId)
			if sibling.Sibling() == id {
				sibling.SetSibling(obj.Sibling())
				break
			}
			siblingId = sibling.Sibling()
		}
	}

	obj.SetParent(0)
	obj.SetSibling(0)
}

// Insert detaches id from wherever it currently sits in the tree and
// makes it the first child of dest.
func Insert(c *core.Core, id uint16, dest uint16) {
	obj := Get(c, id)
	Remove(c, id)

	destObj := Get(c, dest)
	obj.SetSibling(destObj.Child())
	obj.SetParent(dest)
	destObj.SetChild(id)
}
