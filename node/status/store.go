package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleuton/arquitetura360/node/report"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

// StoreReader is the read-only view of the store used by the status API.
type StoreReader interface {
	Snapshot() []lww.Entry
	Get(key string) (lww.Register, bool)
}

// Store exposes the contents of the local store.
type Store struct {
	store StoreReader
}

func NewStore(store StoreReader) *Store {
	return &Store{
		store: store,
	}
}

func (s *Store) Register(group *gin.RouterGroup) {
	group.GET("/entries", s.listEntriesRoute)
	group.GET("/entries/:key", s.getEntryRoute)
	group.GET("/devices", s.listDevicesRoute)
}

func (s *Store) listEntriesRoute(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Store) getEntryRoute(c *gin.Context) {
	key := c.Param("key")
	reg, ok := s.store.Get(key)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, lww.NewEntry(key, reg))
}

func (s *Store) listDevicesRoute(c *gin.Context) {
	c.JSON(http.StatusOK, report.Group(s.store.Snapshot()))
}

var _ Handler = &Store{}
