// Package stream fans render events out to the websocket clients of a page,
// optionally relaying them through Redis so that any server instance can
// reach any client.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "wayfinder:page:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
	clientBuffer   = 64
	relayBuffer    = 256
	relayTimeout   = 2 * time.Second

	// how long to wait for Redis to confirm the pattern subscription
	subscribeTimeout = 5 * time.Second
)

type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	// relay queues messages for Redis so Broadcast never waits on the network
	relay  chan outbound
	ready  chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type outbound struct {
	pageID string
	msg    []byte
}

// Client is one websocket connection watching a page
type Client struct {
	PageID string
	Send   chan []byte
}

// relayed is the Redis message envelope. Origin lets a hub skip its own messages.
type relayed struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		relay:   make(chan outbound, relayBuffer),
		ready:   make(chan struct{}),
		cancel:  cancel,
	}

	if redisClient != nil {
		h.wg.Add(2)
		go h.subscribeRedis(ctx)
		go h.publishRedis(ctx)
	} else {
		close(h.ready)
	}
	return h
}

// Ready is closed once the Redis subscription is established
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) Register(pageID string) *Client {
	client := &Client{
		PageID: pageID,
		Send:   make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[pageID] == nil {
		h.clients[pageID] = map[*Client]struct{}{}
	}
	h.clients[pageID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pageClients, ok := h.clients[client.PageID]
	if !ok {
		return
	}
	if _, ok := pageClients[client]; !ok {
		return
	}
	delete(pageClients, client)
	if len(pageClients) == 0 {
		delete(h.clients, client.PageID)
	}
	close(client.Send)
}

// Subscribers reports the number of local clients watching a page
func (h *Hub) Subscribers(pageID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[pageID])
}

// Broadcast delivers payload to the local clients of a page and queues it for
// the other instances. It does not block.
func (h *Hub) Broadcast(pageID string, payload []byte) {
	h.deliver(pageID, payload)

	if h.redis == nil {
		return
	}
	msg, err := json.Marshal(relayed{Origin: h.id, Payload: payload})
	if err != nil {
		log.Printf("stream: failed to encode relay message: %v", err)
		return
	}
	select {
	case h.relay <- outbound{pageID: pageID, msg: msg}:
	default:
		log.Printf("stream: redis relay is backed up, dropping event for page %s", pageID)
	}
}

// Close stops the Redis relay
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) deliver(pageID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[pageID] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("stream: client of page %s is slow, dropping event", pageID)
		}
	}
}

func (h *Hub) publishRedis(ctx context.Context) {
	defer h.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-h.relay:
			pctx, cancel := context.WithTimeout(ctx, relayTimeout)
			err := h.redis.Publish(pctx, redisChannel(out.pageID), out.msg).Err()
			cancel()
			if err != nil {
				log.Printf("redis publish error: %v", err)
			}
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	defer h.wg.Done()

	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.ReceiveTimeout(ctx, subscribeTimeout); err != nil {
		log.Printf("redis subscribe error: %v", err)
		close(h.ready)
		return
	}
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var r relayed
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				log.Printf("stream: dropping malformed relay message on %s: %v", msg.Channel, err)
				continue
			}
			if r.Origin == h.id {
				continue
			}
			if pageID := pageIDFromChannel(msg.Channel); pageID != "" {
				h.deliver(pageID, r.Payload)
			}
		}
	}
}

func redisChannel(pageID string) string {
	return channelPrefix + pageID + channelSuffix
}

func pageIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(ch, channelPrefix), channelSuffix)
}
