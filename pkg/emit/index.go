package emit

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// IndexFile is the name of the index written next to the class files.
const IndexFile = "classes.idx"

// IndexVersion is the format version of the index.
const IndexVersion = 1

// Index records the class files of one run in plan order.
type Index struct {
	Version int     `cbor:"1,keyasint"`
	Classes []Entry `cbor:"2,keyasint"`
}

// Entry describes one emitted class file.
type Entry struct {
	Name       string   `cbor:"1,keyasint"`
	Kind       string   `cbor:"2,keyasint"`
	Source     string   `cbor:"3,keyasint,omitempty"`
	Hash       [32]byte `cbor:"4,keyasint"`           // SHA-256 of the class file
	Forwarders []string `cbor:"5,keyasint,omitempty"` // name+descriptor
}

// Find returns the entry of the class with the given internal name.
func (idx *Index) Find(name string) (*Entry, bool) {
	for i := range idx.Classes {
		if idx.Classes[i].Name == name {
			return &idx.Classes[i], true
		}
	}
	return nil, false
}

var indexEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("emit: failed to create CBOR enc mode: %v", err))
	}
	indexEncMode = em
}

// MarshalIndex encodes an index as canonical CBOR, so equal runs produce
// equal bytes.
func MarshalIndex(idx *Index) ([]byte, error) {
	return indexEncMode.Marshal(idx)
}

// UnmarshalIndex decodes an index.
func UnmarshalIndex(data []byte) (*Index, error) {
	var idx Index
	if err := cbor.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("emit: unmarshal index: %w", err)
	}
	if idx.Version != IndexVersion {
		return nil, fmt.Errorf("emit: unsupported index version %d", idx.Version)
	}
	return &idx, nil
}

// WriteIndex writes idx to path.
func WriteIndex(path string, idx *Index) error {
	data, err := MarshalIndex(idx)
	if err != nil {
		return fmt.Errorf("emit: marshal index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}
	return nil
}

// ReadIndex reads the index at path.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalIndex(data)
}
