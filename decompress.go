package pfsurvey

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType matches the leading bytes of a stream against known
// compression signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(head []byte) DataType {
	for dt, sig := range byteCodeSigs {
		if bytes.HasPrefix(head, sig) {
			return dt
		}
	}

	return DataTypeNoCompression
}

// MaybeDecompressReadCloser peeks at the head of rc and, if it carries a known
// compression signature, wraps it in the matching decompressor. Closing the
// returned value closes rc. Tool outputs are often gzipped in place by the
// pipeline, so every parser reads through here.
func MaybeDecompressReadCloser(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	// Short (including empty) files simply yield fewer bytes
	head, _ := br.Peek(6)

	var (
		r   io.Reader
		err error
	)

	switch DetectDataType(head) {
	case DataTypeGzip:
		r, err = gzip.NewReader(br)
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		// Position the stream at the first archived file
		if _, err = zr.Next(); err == nil {
			r = zr
		}
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		r, err = xz.NewReader(br, 0)
	case DataTypeZ:
		r, err = zlib.NewReader(br)
	default:
		// No data type detected. For now, we assume this is uncompressed.
		r = br
	}
	if err != nil {
		rc.Close()
		return nil, err
	}

	return &chainCloser{Reader: r, under: rc}, nil
}

// chainCloser closes the decompressor (when it is closable) and then the
// underlying stream
type chainCloser struct {
	io.Reader
	under io.Closer
}

func (c *chainCloser) Close() error {
	if cl, ok := c.Reader.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			c.under.Close()
			return err
		}
	}

	return c.under.Close()
}
