package pngutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// ihdrPayload describes a 1x1 8-bit truecolor image
func ihdrPayload() []byte {
	b := binary.BigEndian.AppendUint32(nil, 1)
	b = binary.BigEndian.AppendUint32(b, 1)
	return append(b, 8, 2, 0, 0, 0)
}

func minimalPng(t *testing.T) *Png {
	t.Helper()

	ihdr, err := NewChunk(mustChunkType(t, "IHDR"), ihdrPayload())
	if err != nil {
		t.Fatalf("NewChunk(IHDR) failed: %v", err)
	}
	return FromChunks([]*Chunk{ihdr, mustChunk(t, "IEND", "")})
}

func testingChunks(t *testing.T) []*Chunk {
	t.Helper()

	return []*Chunk{
		mustChunk(t, "FrSt", "I am the first chunk"),
		mustChunk(t, "miDl", "I am another chunk"),
		mustChunk(t, "LASt", "I am the last chunk"),
	}
}

func assertSameChunks(t *testing.T, got, want []*Chunk) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type() != want[i].Type() {
			t.Errorf("chunk %d type = %s, want %s", i, got[i].Type(), want[i].Type())
		}
		if got[i].CRC() != want[i].CRC() {
			t.Errorf("chunk %d crc = %08x, want %08x", i, got[i].CRC(), want[i].CRC())
		}
		if !bytes.Equal(got[i].Data(), want[i].Data()) {
			t.Errorf("chunk %d data = %q, want %q", i, got[i].Data(), want[i].Data())
		}
	}
}

func TestFromChunks(t *testing.T) {
	chunks := testingChunks(t)
	png := FromChunks(chunks)

	if png.Len() != 3 {
		t.Errorf("Len() = %d, want 3", png.Len())
	}
	if png.Header() != Signature {
		t.Errorf("Header() = %x, want %x", png.Header(), Signature)
	}
	assertSameChunks(t, png.Chunks(), chunks)
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		png  *Png
	}{
		{"no chunks", FromChunks(nil)},
		{"minimal image", minimalPng(t)},
		{"custom chunks", FromChunks(testingChunks(t))},
		{"binary payload", FromChunks([]*Chunk{mustChunk(t, "ruSt", "\x00\xff\x00\xff")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.png.Bytes()

			parsed, err := Parse(encoded)
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			assertSameChunks(t, parsed.Chunks(), tt.png.Chunks())

			if !bytes.Equal(parsed.Bytes(), encoded) {
				t.Error("re-encoding a parsed file should be byte-exact")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	valid := FromChunks(testingChunks(t)).Bytes()

	badCRC := append([]byte(nil), valid...)
	badCRC[len(badCRC)-1] ^= 0x01

	badSig := append([]byte(nil), valid...)
	badSig[1] = 'Q'

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"empty", nil, pngerrors.ErrBadSignature},
		{"short signature", Signature[:5], pngerrors.ErrBadSignature},
		{"wrong signature", badSig, pngerrors.ErrBadSignature},
		{"bad crc in last chunk", badCRC, pngerrors.ErrCrcMismatch},
		{"trailing garbage", append(append([]byte(nil), valid...), 1, 2, 3), pngerrors.ErrBufferTooShort},
		{"truncated last chunk", valid[:len(valid)-2], pngerrors.ErrBufferTooShort},
		{"reserved bit chunk", append(Signature[:], rawChunk(0, "Rust", nil, 0)...), pngerrors.ErrInvalidChunkType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if png != nil {
				t.Error("Parse() should not return a partial file")
			}
		})
	}
}

func TestParseErrorReportsChunkPosition(t *testing.T) {
	valid := FromChunks(testingChunks(t)).Bytes()
	valid[len(valid)-1] ^= 0x01

	_, err := Parse(valid)

	var pngErr *pngerrors.PngError
	if !errors.As(err, &pngErr) {
		t.Fatalf("Parse() error %v is not a PngError", err)
	}
	if pngErr.Details["chunkIndex"] != 2 {
		t.Errorf("chunkIndex = %v, want 2", pngErr.Details["chunkIndex"])
	}
	if _, ok := pngErr.Details["offset"]; !ok {
		t.Error("error should carry the chunk offset")
	}
}

func TestChunkByType(t *testing.T) {
	png := FromChunks(testingChunks(t))

	c, err := png.ChunkByType("miDl")
	if err != nil {
		t.Fatalf("ChunkByType(miDl) failed: %v", err)
	}
	if s, _ := c.DataAsString(); s != "I am another chunk" {
		t.Errorf("ChunkByType(miDl) data = %q", s)
	}

	if _, err := png.ChunkByType("MIDL"); !errors.Is(err, pngerrors.ErrChunkNotFound) {
		t.Errorf("ChunkByType(MIDL) error = %v, want chunk not found", err)
	}
}

func TestRemoveFirstChunk(t *testing.T) {
	png := FromChunks(testingChunks(t))
	png.AppendChunk(mustChunk(t, "miDl", "second middle"))

	removed, err := png.RemoveFirstChunk("miDl")
	if err != nil {
		t.Fatalf("RemoveFirstChunk() failed: %v", err)
	}
	if s, _ := removed.DataAsString(); s != "I am another chunk" {
		t.Errorf("removed chunk data = %q, want the first match", s)
	}
	if png.Len() != 3 {
		t.Errorf("Len() = %d after removal, want 3", png.Len())
	}

	remaining, err := png.ChunkByType("miDl")
	if err != nil {
		t.Fatalf("second miDl chunk should remain: %v", err)
	}
	if s, _ := remaining.DataAsString(); s != "second middle" {
		t.Errorf("remaining chunk data = %q", s)
	}
}

func TestRemoveFirstChunkNotFoundLeavesFileUnchanged(t *testing.T) {
	png := FromChunks(testingChunks(t))
	before := png.Bytes()

	if _, err := png.RemoveFirstChunk("ruSt"); !errors.Is(err, pngerrors.ErrChunkNotFound) {
		t.Fatalf("RemoveFirstChunk() error = %v, want chunk not found", err)
	}
	if !bytes.Equal(png.Bytes(), before) {
		t.Error("failed removal should not modify the file")
	}
}

func TestRemoveFirstChunkDoesNotAffectEarlierSnapshots(t *testing.T) {
	png := FromChunks(testingChunks(t))
	snapshot := png.Chunks()

	if _, err := png.RemoveFirstChunk("FrSt"); err != nil {
		t.Fatalf("RemoveFirstChunk() failed: %v", err)
	}
	if snapshot[0].Type().String() != "FrSt" || snapshot[1].Type().String() != "miDl" {
		t.Error("removal should not rewrite a previously returned chunk list")
	}
}

func TestRemoveAllChunks(t *testing.T) {
	png := FromChunks(testingChunks(t))
	png.AppendChunk(mustChunk(t, "miDl", "second middle"))

	removed, err := png.RemoveAllChunks("miDl")
	if err != nil {
		t.Fatalf("RemoveAllChunks() failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d chunks, want 2", len(removed))
	}
	if png.Len() != 2 {
		t.Errorf("Len() = %d, want 2", png.Len())
	}
	if _, err := png.RemoveAllChunks("miDl"); !errors.Is(err, pngerrors.ErrChunkNotFound) {
		t.Errorf("second RemoveAllChunks() error = %v, want chunk not found", err)
	}
}

func TestAppendThenRemoveRestoresLength(t *testing.T) {
	png := minimalPng(t)
	before := png.Len()

	appended := mustChunk(t, "ruSt", "hidden")
	png.AppendChunk(appended)

	removed, err := png.RemoveFirstChunk("ruSt")
	if err != nil {
		t.Fatalf("RemoveFirstChunk() failed: %v", err)
	}
	if !bytes.Equal(removed.Bytes(), appended.Bytes()) {
		t.Error("removed chunk should be byte-equal to the appended one")
	}
	if png.Len() != before {
		t.Errorf("Len() = %d, want %d", png.Len(), before)
	}
}

func TestHiddenMessageEndToEnd(t *testing.T) {
	original, err := Parse(minimalPng(t).Bytes())
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	before := original.Len()

	original.AppendChunk(mustChunk(t, "ruSt", "hidden"))

	reparsed, err := Parse(original.Bytes())
	if err != nil {
		t.Fatalf("Parse() of modified file failed: %v", err)
	}
	if reparsed.Len() != before+1 {
		t.Fatalf("Len() = %d, want %d", reparsed.Len(), before+1)
	}

	last := reparsed.Chunks()[before]
	if last.Type().String() != "ruSt" {
		t.Errorf("appended chunk type = %s, want ruSt", last.Type())
	}
	msg, err := last.DataAsString()
	if err != nil {
		t.Fatalf("DataAsString() failed: %v", err)
	}
	if msg != "hidden" {
		t.Errorf("message = %q, want hidden", msg)
	}
}

func TestPngWriteTo(t *testing.T) {
	png := minimalPng(t)

	var buf bytes.Buffer
	n, err := png.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() failed: %v", err)
	}
	if n != int64(buf.Len()) || !bytes.Equal(buf.Bytes(), png.Bytes()) {
		t.Error("WriteTo() should write exactly Bytes()")
	}
	if !bytes.HasPrefix(buf.Bytes(), Signature[:]) {
		t.Error("output should start with the PNG signature")
	}
}

func TestPngString(t *testing.T) {
	s := minimalPng(t).String()

	for _, want := range []string{"89504e470d0a1a0a", "Chunks: 2", `type="IHDR" length=13`, `type="IEND" length=0`} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
