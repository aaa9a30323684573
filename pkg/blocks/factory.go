package blocks

import (
	"github.com/stateful/blocky/internal/ulid"
)

// Factory creates blocks for the reconstructor. Hosts supply their own to
// attach IDs or validate attributes.
type Factory interface {
	CreateBlock(kind Kind, attrs Attributes, children []*Block) *Block
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(kind Kind, attrs Attributes, children []*Block) *Block

func (f FactoryFunc) CreateBlock(kind Kind, attrs Attributes, children []*Block) *Block {
	return f(kind, attrs, children)
}

type idFactory struct {
	ids ulid.Generator
}

// NewFactory returns a factory that assigns every block a ULID client ID.
func NewFactory() Factory {
	return &idFactory{ids: ulid.NewGenerator()}
}

// NewFactoryWithIDs is NewFactory with a custom ID source.
func NewFactoryWithIDs(ids ulid.Generator) Factory {
	return &idFactory{ids: ids}
}

func (f *idFactory) CreateBlock(kind Kind, attrs Attributes, children []*Block) *Block {
	return &Block{
		ClientID:   f.ids.Next(),
		Kind:       kind,
		Attributes: attrs,
		Children:   children,
	}
}
