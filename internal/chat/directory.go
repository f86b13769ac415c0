package chat

import (
	"context"
	"sync"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/pkg/logger"
)

type lister interface {
	ListGroups(ctx context.Context) ([]Conversation, error)
	ListIndividuals(ctx context.Context) ([]Conversation, error)
}

// Directory holds the two conversation lists for the chat sidebar.
type Directory struct {
	svc lister

	mu          sync.RWMutex
	groups      []Conversation
	individuals []Conversation
}

func NewDirectory(svc lister) *Directory {
	return &Directory{svc: svc}
}

// Load issues the two directory fetches independently. A group listing
// failure is returned to the caller (group channels are the primary
// navigation surface); an individual listing failure only logs and leaves
// that list empty. Neither fetch is retried.
func (d *Directory) Load(ctx context.Context) error {
	var (
		wg          sync.WaitGroup
		groups      []Conversation
		individuals []Conversation
		groupErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		groups, groupErr = d.svc.ListGroups(ctx)
	}()
	go func() {
		defer wg.Done()
		var err error
		individuals, err = d.svc.ListIndividuals(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("individual chat listing failed")
			individuals = nil
		}
	}()
	wg.Wait()

	d.mu.Lock()
	if groupErr == nil {
		d.groups = groups
	}
	d.individuals = individuals
	d.mu.Unlock()

	return groupErr
}

func (d *Directory) Groups() []Conversation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Conversation, len(d.groups))
	copy(out, d.groups)
	return out
}

func (d *Directory) Individuals() []Conversation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Conversation, len(d.individuals))
	copy(out, d.individuals)
	return out
}

// FindIndividual matches an existing 1:1 conversation by counterpart id.
func (d *Directory) FindIndividual(counterpartID string) (Conversation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.individuals {
		if c.Counterpart != nil && c.Counterpart.ID == counterpartID {
			return c, true
		}
	}
	return Conversation{}, false
}

// PrependIndividual puts a freshly created 1:1 conversation at the top of
// the individual list.
func (d *Directory) PrependIndividual(conv Conversation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.individuals = append([]Conversation{conv}, d.individuals...)
}
