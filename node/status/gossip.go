package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleuton/arquitetura360/pkg/gossip"
)

type PeerLister interface {
	Peers() []gossip.PeerStatus
}

// Gossip exposes the delivery status of each peer.
type Gossip struct {
	peers PeerLister
}

func NewGossip(peers PeerLister) *Gossip {
	return &Gossip{
		peers: peers,
	}
}

func (s *Gossip) Register(group *gin.RouterGroup) {
	group.GET("/peers", s.listPeersRoute)
}

func (s *Gossip) listPeersRoute(c *gin.Context) {
	c.JSON(http.StatusOK, s.peers.Peers())
}

var _ Handler = &Gossip{}
