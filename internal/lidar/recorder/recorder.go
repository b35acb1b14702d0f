// Package recorder records converted messages to disk and replays them.
//
// A recording is a directory holding header.json, index.bin and
// frames/chunk_NNNN.pb files. Each chunk is a sequence of length-prefixed
// protobuf-encoded envelopes; the index maps message sequence numbers to
// their chunk and byte offset.
package recorder

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/monitoring"
	"github.com/banshee-data/ouster-bridge/internal/version"
)

// FormatVersion identifies the on-disk layout.
const FormatVersion = "1.0"

// ChunkSize is the number of messages per chunk file.
const ChunkSize = 1000

// LogHeader describes a recording.
type LogHeader struct {
	Version         string            `json:"version"`
	SoftwareVersion string            `json:"software_version"`
	SessionID       string            `json:"session_id"`
	CreatedNs       int64             `json:"created_ns"`
	SensorID        string            `json:"sensor_id"`
	TotalMessages   uint64            `json:"total_messages"`
	StartNs         int64             `json:"start_ns"`
	EndNs           int64             `json:"end_ns"`
	Topics          map[string]uint64 `json:"topics"`
}

// IndexEntry locates one message in the chunk files.
type IndexEntry struct {
	Seq        uint64
	StampNanos int64
	ChunkID    uint32
	Offset     uint32
}

// Recorder writes messages to a recording directory. It is safe for
// concurrent use and satisfies pipeline.Sink.
type Recorder struct {
	basePath  string
	sessionID string

	header       LogHeader
	index        []IndexEntry
	currentChunk int
	chunkFile    *os.File
	chunkOffset  uint32

	count   uint64
	startNs int64
	endNs   int64

	mu     sync.Mutex
	closed bool
}

// NewRecorder creates a recorder writing under basePath. If basePath is
// empty, a timestamped directory is created in the system temp dir.
func NewRecorder(basePath, sensorID string) (*Recorder, error) {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), fmt.Sprintf("ouster_%s_%d", sensorID, time.Now().Unix()))
	}

	if err := os.MkdirAll(filepath.Join(basePath, "frames"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	sessionID := uuid.NewString()
	return &Recorder{
		basePath:     basePath,
		sessionID:    sessionID,
		currentChunk: -1,
		header: LogHeader{
			Version:         FormatVersion,
			SoftwareVersion: version.Version,
			SessionID:       sessionID,
			CreatedNs:       time.Now().UnixNano(),
			SensorID:        sensorID,
			Topics:          map[string]uint64{},
		},
	}, nil
}

// SessionID returns the id stamped into the header.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Publish appends msg to the recording.
func (r *Recorder) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := NewEnvelope(topic, msg)
	if err != nil {
		return err
	}
	return r.Record(env)
}

// Record appends an already built envelope.
func (r *Recorder) Record(env Envelope) error {
	data := env.Marshal()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}

	if env.StampNanos != 0 {
		if r.startNs == 0 || env.StampNanos < r.startNs {
			r.startNs = env.StampNanos
		}
		if env.StampNanos > r.endNs {
			r.endNs = env.StampNanos
		}
	}

	chunkIdx := int(r.count / ChunkSize)
	if chunkIdx != r.currentChunk {
		if err := r.rotateChunk(chunkIdx); err != nil {
			return err
		}
	}

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(data)))
	if _, err := r.chunkFile.Write(lenBuf); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}
	if _, err := r.chunkFile.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}

	r.index = append(r.index, IndexEntry{
		Seq:        r.count,
		StampNanos: env.StampNanos,
		ChunkID:    uint32(chunkIdx),
		Offset:     r.chunkOffset,
	})

	r.chunkOffset += uint32(4 + len(data))
	r.count++
	r.header.Topics[env.Topic]++

	return nil
}

func (r *Recorder) rotateChunk(chunkIdx int) error {
	if r.chunkFile != nil {
		if err := r.chunkFile.Close(); err != nil {
			return fmt.Errorf("failed to close chunk: %w", err)
		}
	}

	f, err := os.Create(chunkPath(r.basePath, chunkIdx))
	if err != nil {
		return fmt.Errorf("failed to create chunk file: %w", err)
	}

	r.chunkFile = f
	r.currentChunk = chunkIdx
	r.chunkOffset = 0
	monitoring.Debugf("[recorder] session %s: opened chunk %d after %d messages", r.sessionID, chunkIdx, r.count)
	return nil
}

// Close finalises the recording and writes the header and index.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.chunkFile != nil {
		if err := r.chunkFile.Close(); err != nil {
			return fmt.Errorf("failed to close chunk: %w", err)
		}
	}

	r.header.TotalMessages = r.count
	r.header.StartNs = r.startNs
	r.header.EndNs = r.endNs

	headerData, err := json.MarshalIndent(r.header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.basePath, "header.json"), headerData, 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	indexFile, err := os.Create(filepath.Join(r.basePath, "index.bin"))
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer indexFile.Close()

	if err := binary.Write(indexFile, binary.LittleEndian, r.index); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Path returns the base path of the recording.
func (r *Recorder) Path() string {
	return r.basePath
}

// Count returns the number of messages recorded.
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func chunkPath(basePath string, chunkIdx int) string {
	return filepath.Join(basePath, "frames", fmt.Sprintf("chunk_%04d.pb", chunkIdx))
}

// Replayer reads envelopes back from a recording.
type Replayer struct {
	basePath string
	header   LogHeader
	index    []IndexEntry

	current      uint64
	currentChunk int
	chunkData    []byte

	mu sync.Mutex
}

// NewReplayer opens a recording for replay.
func NewReplayer(basePath string) (*Replayer, error) {
	r := &Replayer{
		basePath:     basePath,
		currentChunk: -1,
	}

	headerData, err := os.ReadFile(filepath.Join(basePath, "header.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerData, &r.header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	indexFile, err := os.Open(filepath.Join(basePath, "index.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer indexFile.Close()

	r.index = make([]IndexEntry, 0, r.header.TotalMessages)
	for {
		var entry IndexEntry
		if err := binary.Read(indexFile, binary.LittleEndian, &entry); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		r.index = append(r.index, entry)
	}
	if uint64(len(r.index)) != r.header.TotalMessages {
		return nil, fmt.Errorf("index holds %d entries, header claims %d", len(r.index), r.header.TotalMessages)
	}

	return r, nil
}

// Header returns the recording header.
func (r *Replayer) Header() LogHeader {
	return r.header
}

// Total returns the number of recorded messages.
func (r *Replayer) Total() uint64 {
	return uint64(len(r.index))
}

// Position returns the index of the message Next will return.
func (r *Replayer) Position() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Seek positions the replayer at message i.
func (r *Replayer) Seek(i uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i >= uint64(len(r.index)) {
		return fmt.Errorf("message index out of range: %d >= %d", i, len(r.index))
	}
	r.current = i
	return nil
}

// SeekToTimestamp positions the replayer at the first message stamped at
// or after stampNs, or at the end when there is none.
func (r *Replayer) SeekToTimestamp(stampNs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.index {
		if entry.StampNanos >= stampNs {
			r.current = uint64(i)
			return
		}
	}
	r.current = uint64(len(r.index))
}

// Next returns the current envelope and advances. It returns io.EOF after
// the last message.
func (r *Replayer) Next() (Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current >= uint64(len(r.index)) {
		return Envelope{}, io.EOF
	}
	entry := r.index[r.current]

	if int(entry.ChunkID) != r.currentChunk {
		data, err := os.ReadFile(chunkPath(r.basePath, int(entry.ChunkID)))
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to read chunk: %w", err)
		}
		r.chunkData = data
		r.currentChunk = int(entry.ChunkID)
	}

	offset := uint64(entry.Offset)
	if offset+4 > uint64(len(r.chunkData)) {
		return Envelope{}, fmt.Errorf("invalid message offset %d in chunk %d", offset, entry.ChunkID)
	}
	size := uint64(binary.LittleEndian.Uint32(r.chunkData[offset:]))
	offset += 4
	if offset+size > uint64(len(r.chunkData)) {
		return Envelope{}, fmt.Errorf("invalid message length %d in chunk %d", size, entry.ChunkID)
	}

	env, err := UnmarshalEnvelope(r.chunkData[offset : offset+size])
	if err != nil {
		return Envelope{}, fmt.Errorf("message %d: %w", entry.Seq, err)
	}

	r.current++
	return env, nil
}
