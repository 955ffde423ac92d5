package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/loykin/docmigrate/internal/common"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RunCommand executes a raw database command given as an extended-JSON
// object, for operations the declarative kinds do not cover (collMod,
// validators, sharding commands and the like).
type RunCommand struct {
	Command string `yaml:"command"`
}

func (o *Operation) runCommand(ctx context.Context, db *mongo.Database) error {
	c := o.RunCommand
	if c.Command == "" {
		return errors.New("run_command: command is required")
	}
	if !gjson.Valid(c.Command) {
		return errors.New("run_command: command is not valid JSON")
	}
	parsed := gjson.Parse(c.Command)
	if !parsed.IsObject() {
		return errors.New("run_command: command must be a JSON object")
	}
	name := commandName(parsed)
	if name == "" {
		return errors.New("run_command: command object is empty")
	}

	var cmd bson.D
	if err := bson.UnmarshalExtJSON([]byte(c.Command), true, &cmd); err != nil {
		return fmt.Errorf("run_command %s: decode: %w", name, err)
	}

	logger := common.GetLogger().WithComponent("task")
	logger.Debug("running raw command", "command", name)
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("run_command %s: %w", name, err)
	}
	return nil
}

// commandName returns the first key of the command object, which is the
// command's name by the wire protocol convention.
func commandName(parsed gjson.Result) string {
	name := ""
	parsed.ForEach(func(key, _ gjson.Result) bool {
		name = key.String()
		return false
	})
	return name
}
