package game

import (
	"maps"
	"slices"

	log "github.com/sirupsen/logrus"
)

// applyInput updates key state from the batch, clients in ascending index
// order, then lets agents decide for computer players in slot order. Events
// naming an unknown player, a player of another client, a computer player or
// an unknown key are discarded.
func (w *World) applyInput(batch InputBatch) {
	for _, client := range slices.Sorted(maps.Keys(batch)) {
		for _, ev := range batch[client] {
			p := w.Player(ev.Player)
			if p == nil || p.Client != client || p.Computer || ev.Key < 0 || ev.Key >= KeyCount {
				w.log.WithFields(log.Fields{"client": client, "action": ev.String()}).Debug("discarding invalid input")
				continue
			}
			p.Keys[ev.Key] = ev.Pressed
		}
	}

	for _, p := range w.Players {
		agent := w.agents[p.Index]
		if !p.Computer || !p.Alive() || agent == nil {
			continue
		}
		for _, ev := range agent.Decide(w, p) {
			if ev.Player != p.Index || ev.Key < 0 || ev.Key >= KeyCount {
				continue
			}
			p.Keys[ev.Key] = ev.Pressed
		}
	}
}
