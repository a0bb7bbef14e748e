package tracking

import (
	"testing"

	"github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
)

func TestValidateStatusChange_AdjacentOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     StatusChange
		wantCode aggregates.ErrorCode
	}{
		{StatusNotStarted, StatusFabricating, StatusChangeAdvance, ""},
		{StatusFabricating, StatusCompleted, StatusChangeAdvance, ""},
		{StatusCompleted, StatusShipped, StatusChangeAdvance, ""},
		{StatusShipped, StatusInstalled, StatusChangeAdvance, ""},
		{StatusFabricating, StatusNotStarted, StatusChangeRollback, ""},
		{StatusInstalled, StatusShipped, StatusChangeRollback, ""},
		{StatusNotStarted, StatusCompleted, "", aggregates.CodeInvalidTransition},
		{StatusFabricating, StatusInstalled, "", aggregates.CodeInvalidTransition},
		{StatusShipped, StatusNotStarted, "", aggregates.CodeInvalidTransition},
		{StatusInstalled, StatusFabricating, "", aggregates.CodeInvalidTransition},
		{StatusShipped, StatusShipped, "", aggregates.CodeInvalidTransition},
		{StatusNotStarted, Status("melted"), "", aggregates.CodeValidation},
	}
	for _, tc := range cases {
		change, err := ValidateStatusChange(tc.from, tc.to)
		if tc.wantCode == "" {
			if err != nil {
				t.Errorf("ValidateStatusChange(%q, %q): unexpected err %v", tc.from, tc.to, err)
				continue
			}
			if change != tc.want {
				t.Errorf("ValidateStatusChange(%q, %q) = %q, want %q", tc.from, tc.to, change, tc.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ValidateStatusChange(%q, %q): expected rejection", tc.from, tc.to)
			continue
		}
		if !aggregates.IsCode(err, tc.wantCode) {
			t.Errorf("ValidateStatusChange(%q, %q): code = %q, want %q", tc.from, tc.to, aggregates.CodeOf(err), tc.wantCode)
		}
	}
}

func TestValidateLocationChange(t *testing.T) {
	if err := ValidateLocationChange(StatusShipped, LocationYard); err != nil {
		t.Fatalf("shipped -> yard: %v", err)
	}
	if err := ValidateLocationChange(StatusShipped, LocationStaging); err != nil {
		t.Fatalf("shipped -> staging: %v", err)
	}

	err := ValidateLocationChange(StatusFabricating, LocationYard)
	if !aggregates.IsCode(err, aggregates.CodeInvalidTransition) {
		t.Fatalf("fabricating location update: code = %q, want invalid_transition", aggregates.CodeOf(err))
	}

	err = ValidateLocationChange(StatusInstalled, LocationStaging)
	if !aggregates.IsCode(err, aggregates.CodeLocationLocked) {
		t.Fatalf("installed location update: code = %q, want location_locked_after_install", aggregates.CodeOf(err))
	}

	err = ValidateLocationChange(StatusShipped, Location("roof"))
	if !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("unknown location: code = %q, want validation", aggregates.CodeOf(err))
	}
}

func TestValidateDeliveryChange(t *testing.T) {
	allowed := []struct{ from, to DeliveryStatus }{
		{DeliveryPending, DeliveryInTransit},
		{DeliveryInTransit, DeliveryDelivered},
		{DeliveryDelivered, DeliveryReceived},
		{DeliveryPending, DeliveryRejected},
		{DeliveryInTransit, DeliveryRejected},
		{DeliveryDelivered, DeliveryRejected},
	}
	for _, tc := range allowed {
		if err := ValidateDeliveryChange(tc.from, tc.to); err != nil {
			t.Errorf("delivery %q -> %q: unexpected err %v", tc.from, tc.to, err)
		}
	}

	denied := []struct{ from, to DeliveryStatus }{
		{DeliveryPending, DeliveryDelivered},
		{DeliveryPending, DeliveryReceived},
		{DeliveryInTransit, DeliveryReceived},
		{DeliveryReceived, DeliveryRejected},
		{DeliveryRejected, DeliveryPending},
		{DeliveryReceived, DeliveryDelivered},
	}
	for _, tc := range denied {
		err := ValidateDeliveryChange(tc.from, tc.to)
		if !aggregates.IsCode(err, aggregates.CodeInvalidTransition) {
			t.Errorf("delivery %q -> %q: code = %q, want invalid_transition", tc.from, tc.to, aggregates.CodeOf(err))
		}
	}
}

func TestValidateCrewChange(t *testing.T) {
	if err := ValidateCrewChange(CrewScheduled, CrewActive); err != nil {
		t.Fatalf("scheduled -> active: %v", err)
	}
	if err := ValidateCrewChange(CrewActive, CrewCompleted); err != nil {
		t.Fatalf("active -> completed: %v", err)
	}
	err := ValidateCrewChange(CrewScheduled, CrewCompleted)
	if !aggregates.IsCode(err, aggregates.CodeInvalidTransition) {
		t.Fatalf("scheduled -> completed: code = %q, want invalid_transition", aggregates.CodeOf(err))
	}
	err = ValidateCrewChange(CrewCompleted, CrewActive)
	if !aggregates.IsCode(err, aggregates.CodeInvalidTransition) {
		t.Fatalf("completed -> active: code = %q, want invalid_transition", aggregates.CodeOf(err))
	}
}

func TestComputeTotalWeight(t *testing.T) {
	p := PieceMark{Quantity: 10, WeightPerUnit: 50}
	p.ComputeTotalWeight()
	if p.TotalWeight != 500 {
		t.Fatalf("TotalWeight = %v, want 500", p.TotalWeight)
	}
	p.Quantity = 3
	p.ComputeTotalWeight()
	if p.TotalWeight != 150 {
		t.Fatalf("TotalWeight after quantity change = %v, want 150", p.TotalWeight)
	}
}
