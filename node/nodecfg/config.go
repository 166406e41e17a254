package nodecfg

import (
	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/erigon-lib/common/datadir"
)

type Config struct {
	Name string `toml:"-"`

	// Dirs.DataDir empty keeps every account in memory.
	Dirs datadir.Dirs

	// initial mmap size of the account database
	DBMmapSize datasize.ByteSize

	// RelayConfigFile is the go-zero yaml file of the REST relay. The relay
	// is not started when it is empty.
	RelayConfigFile string
}

// DefaultConfig runs an in-memory node without a relay.
var DefaultConfig = Config{
	Name:       "zipline",
	DBMmapSize: 64 * datasize.MB,
}
