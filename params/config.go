package params

import (
	"github.com/c2h5oh/datasize"

	"github.com/SipengXie/zipline/core/zipline"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

var (
	// DefaultProgramID is where the node deploys the zipline program unless
	// told otherwise.
	DefaultProgramID = zipline.ProgramID

	// DefaultDBMmapSize is the initial mmap size of the account database.
	DefaultDBMmapSize = 64 * datasize.MB
)
