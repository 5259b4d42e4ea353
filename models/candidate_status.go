package models

type CandidateStatus string

const (
	CandidateStatusNew         CandidateStatus = "new"
	CandidateStatusComplete    CandidateStatus = "complete"
	CandidateStatusShortlisted CandidateStatus = "shortlisted"
	CandidateStatusInvited     CandidateStatus = "invited"
	CandidateStatusAccepted    CandidateStatus = "accepted"
	CandidateStatusRefused     CandidateStatus = "refused"
)

var candidateStatusFlow = map[CandidateStatus][]CandidateStatus{
	CandidateStatusNew:         {CandidateStatusComplete, CandidateStatusRefused},
	CandidateStatusComplete:    {CandidateStatusShortlisted, CandidateStatusRefused},
	CandidateStatusShortlisted: {CandidateStatusInvited, CandidateStatusRefused},
	CandidateStatusInvited:     {CandidateStatusAccepted, CandidateStatusRefused},
}

func (s CandidateStatus) IsValid() bool {
	switch s {
	case CandidateStatusNew, CandidateStatusComplete, CandidateStatusShortlisted,
		CandidateStatusInvited, CandidateStatusAccepted, CandidateStatusRefused:
		return true
	}
	return false
}

// CanMoveTo допустим ли переход в статус to
func (s CandidateStatus) CanMoveTo(to CandidateStatus) bool {
	for _, next := range candidateStatusFlow[s] {
		if next == to {
			return true
		}
	}
	return false
}
