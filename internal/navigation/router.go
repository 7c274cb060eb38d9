package navigation

import (
	"fmt"
	"sync"
)

// Tab is a section of the main screen
type Tab string

const (
	TabMatch   Tab = "match"
	TabChat    Tab = "chat"
	TabProfile Tab = "profile"
)

// Route is a typed destination. Parameters travel as fields of the route.
type Route interface {
	Name() string
}

type Welcome struct{}

func (Welcome) Name() string { return "welcome" }

type Login struct{}

func (Login) Name() string { return "login" }

type Register struct{}

func (Register) Name() string { return "register" }

type Main struct {
	Tab Tab
}

func (m Main) Name() string {
	if m.Tab == "" {
		return "main/" + string(TabMatch)
	}
	return "main/" + string(m.Tab)
}

type EditProfile struct {
	UserID int64
}

func (EditProfile) Name() string { return "edit-profile" }

type MatchProfile struct {
	MatchID int64
}

func (m MatchProfile) Name() string { return fmt.Sprintf("match-profile/%d", m.MatchID) }

type Settings struct{}

func (Settings) Name() string { return "settings" }

// Navigator is the capability handed to screens and controllers
type Navigator interface {
	Push(r Route)
	Replace(r Route)
	Reset(r Route)
	Back() bool
	Current() Route
}

// Listener is told about every route change
type Listener func(current Route)

// Stack is a Navigator backed by a route stack. It never becomes empty.
type Stack struct {
	mu        sync.Mutex
	routes    []Route
	listeners []Listener
}

// NewStack creates a stack rooted at root
func NewStack(root Route) *Stack {
	return &Stack{routes: []Route{root}}
}

// Subscribe registers a listener
func (s *Stack) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Stack) Push(r Route) {
	s.mu.Lock()
	s.routes = append(s.routes, r)
	s.notifyLocked()
}

func (s *Stack) Replace(r Route) {
	s.mu.Lock()
	s.routes[len(s.routes)-1] = r
	s.notifyLocked()
}

func (s *Stack) Reset(r Route) {
	s.mu.Lock()
	s.routes = []Route{r}
	s.notifyLocked()
}

// Back pops the top route. It reports false when already at the root.
func (s *Stack) Back() bool {
	s.mu.Lock()
	if len(s.routes) == 1 {
		s.mu.Unlock()
		return false
	}
	s.routes = s.routes[:len(s.routes)-1]
	s.notifyLocked()
	return true
}

func (s *Stack) Current() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routes[len(s.routes)-1]
}

// Depth returns the number of routes on the stack
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routes)
}

// notifyLocked releases the lock before calling listeners so they may navigate
func (s *Stack) notifyLocked() {
	current := s.routes[len(s.routes)-1]
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(current)
	}
}
