package config

type WorkerKeyStruct struct {
	SettleSessionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SettleSessionsQueue: "settle_sessions_queue",
}
