package database

import "mvagent/src/datamodels"

var DbTables = []interface{}{
	&datamodels.BeliefHistoryRecord{},
	&datamodels.AgentTradeRecord{},
	&datamodels.TerminalSnapshotRecord{},
}
