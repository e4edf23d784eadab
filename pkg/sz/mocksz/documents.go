package mocksz

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// fail sets the calling thread's error slot and returns code. The library
// lock must be held.
func (c component) fail(code int64, format string, args ...any) int64 {
	msg := fmt.Sprintf("SENZ%04d|", code) + fmt.Sprintf(format, args...)
	c.l.slots[slotKey{c.name, threadID()}] = lastError{code: code, message: msg}
	return code
}

// initLocked marks c live after validating settings.
func (c component) initLocked(settings string) int64 {
	if !json.Valid([]byte(settings)) {
		return c.fail(CodeBadJSON, "invalid settings document")
	}
	c.l.settings = settings
	c.l.live[c.name] = true
	return 0
}

func (c component) destroyLocked() int64 {
	c.l.live[c.name] = false
	return 0
}

func (l *Library) allocHandle(family string) native.Handle {
	h := l.nextHandle
	l.nextHandle++
	l.opened[family]++
	return h
}

type dataSource struct {
	ID   int64  `json:"DSRC_ID"`
	Code string `json:"DSRC_CODE"`
}

// configDocument is the subset of a configuration definition the fake
// understands. Unknown sections are not preserved.
type configDocument struct {
	Config struct {
		DataSources []dataSource `json:"CFG_DSRC"`
	} `json:"G2_CONFIG"`
}

func templateDocument() *configDocument {
	doc := &configDocument{}
	doc.Config.DataSources = []dataSource{{ID: 1, Code: "TEST"}, {ID: 2, Code: "SEARCH"}}
	return doc
}

func parseConfig(definition string) (*configDocument, error) {
	doc := &configDocument{}
	if err := json.Unmarshal([]byte(definition), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *configDocument) clone() *configDocument {
	out := &configDocument{}
	out.Config.DataSources = append([]dataSource(nil), d.Config.DataSources...)
	return out
}

func (d *configDocument) codes() []string {
	out := make([]string, 0, len(d.Config.DataSources))
	for _, ds := range d.Config.DataSources {
		out = append(out, ds.Code)
	}
	return out
}

func (d *configDocument) has(code string) bool {
	for _, ds := range d.Config.DataSources {
		if strings.EqualFold(ds.Code, code) {
			return true
		}
	}
	return false
}

func (d *configDocument) String() string {
	b, _ := json.Marshal(d)
	return string(b)
}

type registeredConfig struct {
	doc     *configDocument
	comment string
	created time.Time
}

// registerLocked stores doc under a fresh id. The library lock must be held.
func (l *Library) registerLocked(doc *configDocument, comment string) int64 {
	id := l.nextConfigID
	l.nextConfigID++
	l.configs[id] = registeredConfig{doc: doc.clone(), comment: comment, created: time.Now().UTC()}
	return id
}

type recordKey struct {
	dataSource string
	recordID   string
}

type record struct {
	key      recordKey
	entityID int64
	data     map[string]any
}

func (r *record) summary() map[string]any {
	return map[string]any{"DATA_SOURCE": r.key.dataSource, "RECORD_ID": r.key.recordID}
}

type workload struct {
	added, deleted, reevaluated, redone int64
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// entityLocked renders an entity document. The library lock must be held.
func (l *Library) entityLocked(entityID int64) map[string]any {
	key := l.entities[entityID]
	r := l.records[key]
	return map[string]any{
		"ENTITY_ID": entityID,
		"RECORDS":   []any{r.summary()},
	}
}

func (l *Library) sortedEntityIDs() []int64 {
	ids := make([]int64, 0, len(l.entities))
	for id := range l.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func affected(ids ...int64) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"ENTITY_ID": id})
	}
	return out
}
