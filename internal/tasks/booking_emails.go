package tasks

import (
	"fmt"
	"strings"

	"github.com/Urdemonlord/atlasproject/internal/email"
	"github.com/Urdemonlord/atlasproject/internal/models"
)

func rupiah(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + b.String()
}

func displayName(u *models.User) string {
	if u.Profile.Name != "" {
		return u.Profile.Name
	}
	return u.Email
}

func bookingSummary(b *models.Booking, p *models.Property) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Kos: %s\n", p.Title)
	fmt.Fprintf(&sb, "Alamat: %s, %s, %s\n", p.Address.Street, p.Address.District, p.Address.City)
	fmt.Fprintf(&sb, "Periode: %s s/d %s\n", b.StartDate, b.EndDate)
	fmt.Fprintf(&sb, "Sewa bulanan: %s\n", rupiah(b.MonthlyRent))
	fmt.Fprintf(&sb, "Deposit: %s\n", rupiah(b.Deposit))
	if b.Notes != "" {
		fmt.Fprintf(&sb, "Catatan: %s\n", b.Notes)
	}
	return sb.String()
}

// BookingEmails composes the messages sent for a booking event. A new
// booking notifies both parties, a decision by the owner notifies the
// tenant and a cancellation notifies the owner.
func BookingEmails(event BookingEvent, appName string, b *models.Booking, p *models.Property, tenant, owner *models.User) ([]email.Message, error) {
	summary := bookingSummary(b, p)
	tag := string(event)

	switch event {
	case BookingCreated:
		return []email.Message{
			{
				To:      []string{owner.Email},
				Subject: fmt.Sprintf("[%s] Permintaan booking baru untuk %s", appName, p.Title),
				Body:    fmt.Sprintf("Halo %s,\n\n%s mengajukan booking:\n\n%s\nSilakan konfirmasi atau tolak melalui dashboard.\n", displayName(owner), displayName(tenant), summary),
				Tag:     tag,
			},
			{
				To:      []string{tenant.Email},
				Subject: fmt.Sprintf("[%s] Booking Anda sedang diproses", appName),
				Body:    fmt.Sprintf("Halo %s,\n\nBooking Anda telah kami terima dan menunggu konfirmasi pemilik:\n\n%s", displayName(tenant), summary),
				Tag:     tag,
			},
		}, nil
	case BookingConfirmed, BookingRejected:
		verdict := "dikonfirmasi"
		if event == BookingRejected {
			verdict = "ditolak"
		}
		return []email.Message{{
			To:      []string{tenant.Email},
			Subject: fmt.Sprintf("[%s] Booking Anda %s", appName, verdict),
			Body:    fmt.Sprintf("Halo %s,\n\nBooking Anda telah %s oleh pemilik kos:\n\n%s", displayName(tenant), verdict, summary),
			Tag:     tag,
		}}, nil
	case BookingCancelled:
		return []email.Message{{
			To:      []string{owner.Email},
			Subject: fmt.Sprintf("[%s] Booking dibatalkan untuk %s", appName, p.Title),
			Body:    fmt.Sprintf("Halo %s,\n\n%s membatalkan booking berikut:\n\n%s", displayName(owner), displayName(tenant), summary),
			Tag:     tag,
		}}, nil
	}
	return nil, fmt.Errorf("unknown booking event %q", event)
}
