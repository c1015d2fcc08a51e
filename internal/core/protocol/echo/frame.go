package echo

import (
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// MaxFrameSize 单帧消息上限
const MaxFrameSize = 4 << 20

// byteReader 为底层流提供 io.ByteReader
//
// 逐字节读取仅用于长度前缀，长度之后整段读取。
type byteReader struct {
	r io.Reader
}

func (b byteReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadFrame 读取一条带 varint 长度前缀的消息
//
// 零长度帧是合法的空消息，返回空切片而非 nil 错误。
// 首字节处的 EOF 原样返回，表示对端在帧边界关闭。
func ReadFrame(r io.Reader) ([]byte, error) {
	length, err := varint.ReadUvarint(byteReader{r})
	if err != nil {
		return nil, err
	}
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	if length == 0 {
		return []byte{}, nil
	}

	msg := make([]byte, length)
	if _, err := io.ReadFull(r, msg); err != nil {
		// 长度前缀之后的 EOF 意味着帧被截断
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %v", ErrTruncatedFrame, err)
	}
	return msg, nil
}

// WriteFrame 写入一条带 varint 长度前缀的消息
func WriteFrame(w io.Writer, msg []byte) error {
	if len(msg) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(msg))
	}

	header := varint.ToUvarint(uint64(len(msg)))
	frame := make([]byte, 0, len(header)+len(msg))
	frame = append(frame, header...)
	frame = append(frame, msg...)
	_, err := w.Write(frame)
	return err
}
