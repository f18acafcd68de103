package app

type QueryService interface {
	Query(req QueryRequest) (*QueryResult, error)
	Joint(req JointRequest) (float64, *NetworkInfo, error)
}
