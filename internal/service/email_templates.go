package service

import "fmt"

func passwordResetEmailTemplate(name, resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your %s password", appName)
	body := fmt.Sprintf(`Hi %s,

Someone asked to reset the password of your %s account. Choose a new password here:
%s

The link expires in one hour and works once.

If this wasn't you, ignore this email. Your password stays unchanged.

Best,
The %s Team`, name, appName, resetURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Set your first savings goal and log the coffee you didn't buy today:
%s

Every day you save keeps your streak alive.

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account has been permanently deleted from %s.

Your goals, savings, streaks, achievements and friendships have been removed.

If you didn't request this deletion, contact our support team immediately, though we won't be able to recover your account.

Best,
The %s Team`, name, appName, appName)

	return subject, body
}

func friendRequestEmailTemplate(name, fromUsername, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("%s wants to save together on %s", fromUsername, appName)
	body := fmt.Sprintf(`Hi %s,

%s sent you a friend request. Accept it to compare streaks and share goals:
%s/friends

Best,
The %s Team`, name, fromUsername, appURL, appName)

	return subject, body
}
