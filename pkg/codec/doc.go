// Package codec reads and writes mod streams.
//
// A mod stream is a flat list of patch records followed by a single
// terminator byte. Each record names a destination address and carries the
// bytes to place there.
//
// # Record Format
//
//	record := [Address(4)][Size(4)][Payload(Size)]
//	stream := record* 0xff
//
// Address and Size are unsigned 32-bit big-endian integers. The terminator is
// checked at every record boundary before the address is read, so a record
// whose address begins with 0xff cannot be represented.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//
//	encoded, err := c.Encode(codec.NewRecord(0x10, []byte{0xab, 0xcd}))
//	if err != nil {
//	    return err
//	}
//
//	records, err := c.DecodeAll(encoded)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(codec.FormatText(records[0])) // 0x10, 0x2: ['0xab', '0xcd']
//
// # Error Handling
//
// DecodeNext returns ErrEndOfStream at the terminator. A header or payload
// that runs past the buffer, or a buffer that ends without a terminator,
// yields a *TruncatedStreamError which also matches ErrTruncated.
//
// Decoded payloads alias the input buffer; callers that keep records after
// modifying the buffer must copy them.
package codec
