package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/pkg/crypto/adaptive"
)

// ErrCorrupted marks an unreadable segment.
var ErrCorrupted = errors.New("wal: corrupted segment")

type segmentInfo struct {
	id   uint64
	path string
}

// Reader replays ledger records across all segments in order.
// A torn tail (partial frame at the end of the newest segment) ends
// the stream instead of failing recovery.
type Reader struct {
	dir    string
	cipher adaptive.Cipher

	segments []segmentInfo
	segIndex int

	file     *os.File
	dataLen  int64
	startAt  int64
	reader   *bufio.Reader
	headerOK bool
}

// NewReader creates a WAL reader for a directory.
func NewReader(dir string, cipher adaptive.Cipher) (*Reader, error) {
	r := &Reader{
		dir:    dir,
		cipher: cipher,
	}
	if err := r.scanSegments(); err != nil {
		return nil, err
	}
	return r, nil
}

// Seek positions the reader at the composite offset
// (segmentID<<32 | offset within segment).
func (r *Reader) Seek(offset uint64) error {
	segID := offset >> 32
	segOff := int64(uint32(offset))

	i := 0
	for ; i < len(r.segments); i++ {
		if r.segments[i].id >= segID {
			break
		}
	}
	r.closeCurrent()
	r.segIndex = i
	r.startAt = segOff
	return nil
}

// Read returns the next record, or io.EOF at end of stream.
func (r *Reader) Read() (*ledger.Record, error) {
	for {
		if r.reader == nil {
			if err := r.openNextSegment(); err != nil {
				return nil, err
			}
		}

		if !r.headerOK {
			if err := r.readAndValidateHeader(); err != nil {
				if errors.Is(err, errInvalidMagic) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					r.closeCurrent()
					continue
				}
				return nil, err
			}
		}

		rec, err := r.readOneFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				r.closeCurrent()
				continue
			}
			if errors.Is(err, ErrCorruptedFrame) || errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidOp) {
				r.closeCurrent()
				continue
			}
			return nil, err
		}
		return rec, nil
	}
}

// ReadAll drains the stream.
func (r *Reader) ReadAll() ([]*ledger.Record, error) {
	var out []*ledger.Record
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

// Close closes any open segment file.
func (r *Reader) Close() error {
	return r.closeCurrent()
}

func (r *Reader) scanSegments() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.segments = nil
			return nil
		}
		return err
	}

	var segs []segmentInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseSegmentFilename(e.Name())
		if !ok {
			continue
		}
		segs = append(segs, segmentInfo{
			id:   id,
			path: filepath.Join(r.dir, e.Name()),
		})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].id < segs[j].id })
	r.segments = segs
	return nil
}

func (r *Reader) openNextSegment() error {
	r.closeCurrent()

	if r.segIndex >= len(r.segments) {
		return io.EOF
	}

	seg := r.segments[r.segIndex]
	r.segIndex++

	f, err := os.Open(seg.path)
	if err != nil {
		return err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	closed, dataLen, err := verifyChecksumTrailer(f, stat.Size())
	if err != nil {
		f.Close()
		if errors.Is(err, errInvalidMagic) {
			// Skip foreign files that matched the name pattern.
			return nil
		}
		return err
	}

	// Unfinalized segments are read in full; finalized ones stop
	// before the trailer.
	limit := stat.Size()
	if closed {
		limit = dataLen
	}

	r.file = f
	r.dataLen = limit
	r.reader = bufio.NewReader(io.NewSectionReader(f, r.startAt, limit-r.startAt))

	// A seeked segment resumes past its header; only a segment opened
	// at the top still carries the magic to validate.
	r.headerOK = r.startAt > 0

	// Subsequent segments always start at the top.
	r.startAt = 0
	return nil
}

func (r *Reader) readAndValidateHeader() error {
	magic := make([]byte, MagicBytesSize)
	if _, err := io.ReadFull(r.reader, magic); err != nil {
		return err
	}
	if string(magic) != MagicBytes {
		return errInvalidMagic
	}
	r.headerOK = true
	return nil
}

func (r *Reader) closeCurrent() error {
	r.reader = nil
	r.headerOK = false

	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

func (r *Reader) readOneFrame() (*ledger.Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.reader, lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < 5 {
		return nil, ErrCorruptedFrame
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(r.reader, frame); err != nil {
		return nil, err
	}

	return decodeFrame(frame, r.cipher)
}
