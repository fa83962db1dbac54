// Package dialogue implements lookups into a scene's conversation guide.
package dialogue

import (
	"sort"
	"strings"

	"github.com/nathoo/questsim/engine/parser"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// AvailableTopics returns the sorted topic keys for an NPC whose
// requirements are met.
func AvailableTopics(conv types.Conversation, npcID string, flags rules.FlagChecker) []string {
	topics, ok := conv[npcID]
	if !ok {
		return nil
	}

	var result []string
	for key, topic := range topics {
		if rules.EvalAll(topic.Requires, flags) {
			result = append(result, key)
		}
	}
	sort.Strings(result)
	return result
}

// SelectTopic returns the text for a chosen topic.
// Returns false if the topic doesn't exist or its requirements are not met.
func SelectTopic(conv types.Conversation, npcID, topicKey string, flags rules.FlagChecker) (string, bool) {
	topic, ok := conv[npcID][topicKey]
	if !ok {
		return "", false
	}
	if !rules.EvalAll(topic.Requires, flags) {
		return "", false
	}
	return topic.Text, true
}

// Match is a topic that answers a query.
type Match struct {
	NPCID string
	Topic string
	Text  string
}

// Find searches the guide for an available topic whose key or text shares
// a keyword with query. When npcID is set only that NPC's topics are
// searched. NPCs and topics are visited in sorted order.
func Find(conv types.Conversation, npcID, query string, flags rules.FlagChecker) (Match, bool) {
	kws := parser.Keywords(query)
	if len(kws) == 0 {
		return Match{}, false
	}

	npcs := []string{npcID}
	if npcID == "" {
		npcs = npcs[:0]
		for id := range conv {
			npcs = append(npcs, id)
		}
		sort.Strings(npcs)
	}

	for _, id := range npcs {
		for _, key := range AvailableTopics(conv, id, flags) {
			text := conv[id][key].Text
			hay := strings.ToLower(strings.ReplaceAll(key, "_", " ") + " " + text)
			for _, kw := range kws {
				if strings.Contains(hay, kw) {
					return Match{NPCID: id, Topic: key, Text: text}, true
				}
			}
		}
	}
	return Match{}, false
}
