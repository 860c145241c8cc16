package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 单帧最大字节数
	maxFrameSize = 4096
)

// frameConn 按帧收发字节的连接。
// TCP 用换行分帧，WebSocket 天然有消息边界，
// 玩家协程只针对这个抽象工作，两种接入跑同一套逻辑。
type frameConn interface {
	// ReadFrame 阻塞读取下一帧，帧内不含分隔符
	ReadFrame() ([]byte, error)
	// WriteFrame 写出一帧
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() net.Addr
}

// tcpFrameConn 换行分帧的 TCP 连接
type tcpFrameConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newTCPFrameConn(conn net.Conn) *tcpFrameConn {
	return &tcpFrameConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxFrameSize),
	}
}

// ReadFrame 读取下一帧。ReadSlice 不会越过缓冲区追着换行读，
// 帧超过 maxFrameSize 直接报错，和 WebSocket 侧的 SetReadLimit 对齐。
func (c *tcpFrameConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("单帧超过 %d 字节上限", maxFrameSize)
		}
		return nil, err
	}
	frame := bytes.TrimRight(line, "\r\n")
	return append([]byte(nil), frame...), nil
}

func (c *tcpFrameConn) WriteFrame(frame []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *tcpFrameConn) Close() error {
	return c.conn.Close()
}

func (c *tcpFrameConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
