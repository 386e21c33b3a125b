package videosource

import (
	"strconv"

	"github.com/spf13/afero"
)

var fs = afero.NewOsFs()

type SpecifierKind int

const (
	KindInvalid SpecifierKind = iota
	KindRawStream
	KindFilePath
	KindDeviceIndex
)

// Specifier is the classified form of the single capture token handed
// to the selector. Exactly one classification applies to any input.
type Specifier struct {
	Kind  SpecifierKind
	Path  string
	Index int
}

// Classify resolves a capture token into exactly one specifier kind.
// Raw frame mode wins outright, an existing filesystem path beats an
// integer parse, and the integer parse is strict: the parsed value
// printed back must reproduce the token, so inputs like " 1" or "+1"
// stay invalid.
func Classify(capture string, rawFrames bool) Specifier {
	if rawFrames {
		return Specifier{Kind: KindRawStream}
	}

	if exists, err := afero.Exists(fs, capture); err == nil && exists {
		return Specifier{Kind: KindFilePath, Path: capture}
	}

	if index, err := strconv.Atoi(capture); err == nil && strconv.Itoa(index) == capture {
		return Specifier{Kind: KindDeviceIndex, Index: index}
	}

	return Specifier{Kind: KindInvalid}
}
