package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// BytesPerSample is the frame size of 16-bit mono PCM.
const BytesPerSample = 2

// Duration returns the play time of n bytes of PCM at rate.
func Duration(n int, rate int) time.Duration {
	if rate <= 0 || n <= 0 {
		return 0
	}
	samples := n / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(rate)
}

// ChunkBytes returns the byte size of chunk of audio at rate.
func ChunkBytes(rate int, chunk time.Duration) int {
	n := int(int64(rate) * int64(chunk) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n * BytesPerSample
}

// MIMEType returns the raw PCM content type understood by speech backends.
func MIMEType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteWAV frames pcm as a 16-bit mono WAV file.
func WriteWAV(w io.Writer, pcm []byte, rate int) error {
	if rate <= 0 {
		return errors.New("sample rate must be positive")
	}
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * BytesPerSample),
		BlockAlign:    BytesPerSample,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// EncodeWAV returns pcm framed as a WAV file.
func EncodeWAV(pcm []byte, rate int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	if err := WriteWAV(&buf, pcm, rate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeWAV extracts 16-bit mono PCM and its rate from a WAV file. Chunks
// other than fmt and data are skipped.
func DecodeWAV(data []byte) ([]byte, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a WAV file")
	}
	var (
		rate   int
		pcm    []byte
		gotFmt bool
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels := binary.LittleEndian.Uint16(data[body+2:])
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("unsupported WAV encoding (format %d, %d channels, %d bits)", format, channels, bits)
			}
			rate = int(binary.LittleEndian.Uint32(data[body+4:]))
			gotFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		off = body + size + size%2
	}
	if !gotFmt || pcm == nil {
		return nil, 0, errors.New("WAV file missing fmt or data chunk")
	}
	return pcm, rate, nil
}
