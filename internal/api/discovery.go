package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// AgentService is the mDNS service type advertised by display agents
const AgentService = "_deo-agent._tcp"

// DiscoveredAgent represents a display agent found during discovery
type DiscoveredAgent struct {
	// host:port of the agent
	Host string
	// Unique agent identifier
	AgentID string
	// Display model reported by the agent
	Model string
	// Name from mDNS
	Name string
}

// agentFromEntry converts an mDNS entry into a DiscoveredAgent
func agentFromEntry(entry *mdns.ServiceEntry) DiscoveredAgent {
	agent := DiscoveredAgent{
		Name: entry.Name,
	}
	if entry.AddrV4 != nil {
		agent.Host = fmt.Sprintf("%s:%d", entry.AddrV4.String(), entry.Port)
	}

	// Parse agent ID from TXT records
	for _, txt := range entry.InfoFields {
		if strings.HasPrefix(txt, "agentid=") {
			agent.AgentID = strings.TrimPrefix(txt, "agentid=")
		}
		if strings.HasPrefix(txt, "model=") {
			agent.Model = strings.TrimPrefix(txt, "model=")
		}
	}

	// Use hostname if no name
	if agent.Name == "" && entry.Host != "" {
		agent.Name = strings.TrimSuffix(entry.Host, ".")
	}

	return agent
}

// DiscoverAgents discovers display agents on the local network using mDNS.
// Agents are de-duplicated by ID, or by host when no ID is advertised.
func DiscoverAgents(ctx context.Context, timeout time.Duration) ([]DiscoveredAgent, error) {
	var agents []DiscoveredAgent
	var mu sync.Mutex
	seen := make(map[string]bool)

	entriesCh := make(chan *mdns.ServiceEntry, 10)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for entry := range entriesCh {
			agent := agentFromEntry(entry)
			if agent.Host == "" {
				continue
			}

			key := agent.Host
			if agent.AgentID != "" {
				key = agent.AgentID
			}

			mu.Lock()
			if !seen[key] {
				seen[key] = true
				agents = append(agents, agent)
			}
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(AgentService)
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	errCh := make(chan error, 1)
	go func() {
		errCh <- mdns.Query(params)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
		// Query returns on its own once the timeout elapses
		go func() {
			<-errCh
			close(entriesCh)
		}()
		mu.Lock()
		defer mu.Unlock()
		return append([]DiscoveredAgent(nil), agents...), err
	}
	close(entriesCh)
	<-collected

	if err != nil {
		return agents, fmt.Errorf("mDNS query failed: %w", err)
	}

	return agents, nil
}
