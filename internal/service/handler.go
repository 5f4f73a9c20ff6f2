package service

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	RosterServiceName = "toast.v1.RosterService"
	MatchServiceName  = "toast.v1.MatchService"
)

// Fully-qualified procedure paths.
const (
	RosterServiceListParticipantsProcedure      = "/toast.v1.RosterService/ListParticipants"
	RosterServiceSearchParticipantsProcedure    = "/toast.v1.RosterService/SearchParticipants"
	RosterServiceListSessionsProcedure          = "/toast.v1.RosterService/ListSessions"
	RosterServiceParticipantsOfSessionProcedure = "/toast.v1.RosterService/ParticipantsOfSession"
	RosterServiceAddParticipantProcedure        = "/toast.v1.RosterService/AddParticipant"
	RosterServiceRegisterAttendeeProcedure      = "/toast.v1.RosterService/RegisterAttendee"
	RosterServiceCreateSessionProcedure         = "/toast.v1.RosterService/CreateSession"
	RosterServiceUpdateSessionStatusProcedure   = "/toast.v1.RosterService/UpdateSessionStatus"
	RosterServiceAddAttendanceProcedure         = "/toast.v1.RosterService/AddAttendance"
	RosterServiceRemoveAttendanceProcedure      = "/toast.v1.RosterService/RemoveAttendance"
	RosterServiceDeleteParticipantProcedure     = "/toast.v1.RosterService/DeleteParticipant"
	RosterServiceDeleteSessionProcedure         = "/toast.v1.RosterService/DeleteSession"
	RosterServiceUpdateMemoProcedure            = "/toast.v1.RosterService/UpdateMemo"
	RosterServiceParticipantDetailProcedure     = "/toast.v1.RosterService/ParticipantDetail"
	RosterServiceDataVersionProcedure           = "/toast.v1.RosterService/DataVersion"
	RosterServiceImportSheetsProcedure          = "/toast.v1.RosterService/ImportSheets"

	MatchServiceFindDuplicatesProcedure = "/toast.v1.MatchService/FindDuplicates"
	MatchServiceRecommendProcedure      = "/toast.v1.MatchService/Recommend"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}

// NewRosterServiceHandler builds an HTTP handler serving every RosterService
// procedure. It returns the path to mount the handler on.
func NewRosterServiceHandler(svc *RosterService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)

	mux := http.NewServeMux()
	mux.Handle(RosterServiceListParticipantsProcedure, connect.NewUnaryHandler(RosterServiceListParticipantsProcedure, svc.ListParticipants, opts...))
	mux.Handle(RosterServiceSearchParticipantsProcedure, connect.NewUnaryHandler(RosterServiceSearchParticipantsProcedure, svc.SearchParticipants, opts...))
	mux.Handle(RosterServiceListSessionsProcedure, connect.NewUnaryHandler(RosterServiceListSessionsProcedure, svc.ListSessions, opts...))
	mux.Handle(RosterServiceParticipantsOfSessionProcedure, connect.NewUnaryHandler(RosterServiceParticipantsOfSessionProcedure, svc.ParticipantsOfSession, opts...))
	mux.Handle(RosterServiceAddParticipantProcedure, connect.NewUnaryHandler(RosterServiceAddParticipantProcedure, svc.AddParticipant, opts...))
	mux.Handle(RosterServiceRegisterAttendeeProcedure, connect.NewUnaryHandler(RosterServiceRegisterAttendeeProcedure, svc.RegisterAttendee, opts...))
	mux.Handle(RosterServiceCreateSessionProcedure, connect.NewUnaryHandler(RosterServiceCreateSessionProcedure, svc.CreateSession, opts...))
	mux.Handle(RosterServiceUpdateSessionStatusProcedure, connect.NewUnaryHandler(RosterServiceUpdateSessionStatusProcedure, svc.UpdateSessionStatus, opts...))
	mux.Handle(RosterServiceAddAttendanceProcedure, connect.NewUnaryHandler(RosterServiceAddAttendanceProcedure, svc.AddAttendance, opts...))
	mux.Handle(RosterServiceRemoveAttendanceProcedure, connect.NewUnaryHandler(RosterServiceRemoveAttendanceProcedure, svc.RemoveAttendance, opts...))
	mux.Handle(RosterServiceDeleteParticipantProcedure, connect.NewUnaryHandler(RosterServiceDeleteParticipantProcedure, svc.DeleteParticipant, opts...))
	mux.Handle(RosterServiceDeleteSessionProcedure, connect.NewUnaryHandler(RosterServiceDeleteSessionProcedure, svc.DeleteSession, opts...))
	mux.Handle(RosterServiceUpdateMemoProcedure, connect.NewUnaryHandler(RosterServiceUpdateMemoProcedure, svc.UpdateMemo, opts...))
	mux.Handle(RosterServiceParticipantDetailProcedure, connect.NewUnaryHandler(RosterServiceParticipantDetailProcedure, svc.ParticipantDetail, opts...))
	mux.Handle(RosterServiceDataVersionProcedure, connect.NewUnaryHandler(RosterServiceDataVersionProcedure, svc.DataVersion, opts...))
	mux.Handle(RosterServiceImportSheetsProcedure, connect.NewUnaryHandler(RosterServiceImportSheetsProcedure, svc.ImportSheets, opts...))

	return "/" + RosterServiceName + "/", mux
}

// NewMatchServiceHandler builds an HTTP handler serving every MatchService
// procedure. It returns the path to mount the handler on.
func NewMatchServiceHandler(svc *MatchService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)

	mux := http.NewServeMux()
	mux.Handle(MatchServiceFindDuplicatesProcedure, connect.NewUnaryHandler(MatchServiceFindDuplicatesProcedure, svc.FindDuplicates, opts...))
	mux.Handle(MatchServiceRecommendProcedure, connect.NewUnaryHandler(MatchServiceRecommendProcedure, svc.Recommend, opts...))

	return "/" + MatchServiceName + "/", mux
}
