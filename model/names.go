package model

// NameIndex resolves external node names to existing objects by idstring hash.
// Build one per conversion with Document.NameIndex.
type NameIndex struct {
	byHash map[uint64]SectionId
}

func (d *Document) NameIndex() *NameIndex {
	n := &NameIndex{byHash: make(map[uint64]SectionId)}
	for _, obj := range d.Objects() {
		n.byHash[obj.HashName.Hash] = obj.Id
	}
	return n
}

func (n *NameIndex) Lookup(name string) (SectionId, bool) {
	id, ok := n.byHash[ParseHashName(name).Hash]
	return id, ok
}

func (n *NameIndex) Register(name HashName, id SectionId) {
	n.byHash[name.Hash] = id
}
