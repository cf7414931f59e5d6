// Package model is the in-memory Diesel section graph the converters read and write.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mogaika/diesel_model_tool/utils"
)

type SectionId uint32

// NoSection marks an absent reference (no parent, unskinned model, ...).
const NoSection SectionId = 0

type Section interface {
	GetId() SectionId
	setId(id SectionId)
}

// HashName is a Diesel idstring. String is empty when only the hash is known.
type HashName struct {
	String string `yaml:"string,omitempty"`
	Hash   uint64 `yaml:"hash"`
}

func NewHashName(s string) HashName {
	return HashName{String: s, Hash: utils.HashString(s)}
}

func HashNameFromHash(hash uint64) HashName {
	return HashName{Hash: hash}
}

// ParseHashName accepts both plain names and the @ID<hex>@ form produced by Name.
func ParseHashName(name string) HashName {
	if strings.HasPrefix(name, "@ID") && strings.HasSuffix(name, "@") && len(name) == 20 {
		if hash, err := strconv.ParseUint(name[3:19], 16, 64); err == nil {
			return HashNameFromHash(hash)
		}
	}
	return NewHashName(name)
}

func (h HashName) Known() bool { return h.String != "" }

func (h HashName) Name() string {
	if h.Known() {
		return h.String
	}
	return fmt.Sprintf("@ID%016x@", h.Hash)
}
